package dbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/notifier"
)

// ErrDaemonNotRunning is returned by Client calls when traynoted is not on the bus.
var ErrDaemonNotRunning = errors.New("traynoted is not running")

const errorServiceUnknown = "org.freedesktop.DBus.Error.ServiceUnknown"

type caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Client calls a running traynoted over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  caller
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(BusName, Path),
	}, nil
}

// Disconnect closes the bus connection.
func (c *Client) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Show asks the daemon to display a notification.
func (c *Client) Show(ctx context.Context, args ShowArgs) error {
	call := c.obj.CallWithContext(ctx, Interface+".Show", 0, args.values()...)
	return translateError(call.Err)
}

// Close asks the daemon to close a notification.
func (c *Client) Close(ctx context.Context, id model.ID) error {
	call := c.obj.CallWithContext(ctx, Interface+".Close", 0, uint32(id))
	return translateError(call.Err)
}

// Status returns the notifications the daemon considers outstanding.
func (c *Client) Status(ctx context.Context) ([]model.Status, error) {
	call := c.obj.CallWithContext(ctx, Interface+".Status", 0)
	if err := translateError(call.Err); err != nil {
		return nil, err
	}

	var records []statusRecord
	if err := call.Store(&records); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}

	statuses := make([]model.Status, 0, len(records))
	for _, r := range records {
		statuses = append(statuses, r.status())
	}
	return statuses, nil
}

// Capabilities returns the capabilities the daemon advertises.
func (c *Client) Capabilities(ctx context.Context) ([]string, error) {
	call := c.obj.CallWithContext(ctx, Interface+".GetCapabilities", 0)
	if err := translateError(call.Err); err != nil {
		return nil, err
	}

	var caps []string
	if err := call.Store(&caps); err != nil {
		return nil, fmt.Errorf("failed to decode capabilities: %w", err)
	}
	return caps, nil
}

// ServerInformation returns the daemon's name, vendor and version.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	call := c.obj.CallWithContext(ctx, Interface+".GetServerInformation", 0)
	if err := translateError(call.Err); err != nil {
		return ServerInfo{}, err
	}

	var info ServerInfo
	if err := call.Store(&info.Name, &info.Vendor, &info.Version); err != nil {
		return ServerInfo{}, fmt.Errorf("failed to decode server information: %w", err)
	}
	return info, nil
}

// translateError maps D-Bus error names onto the errors callers match on.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dbusErr dbus.Error
	if !errors.As(err, &dbusErr) {
		return err
	}

	msg := dbusErr.Error()
	switch dbusErr.Name {
	case ErrorDuplicateID:
		return fmt.Errorf("%w: %s", notifier.ErrDuplicateID, msg)
	case errorServiceUnknown:
		return ErrDaemonNotRunning
	default:
		return err
	}
}
