//go:build linux

package native

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/notifier"
)

// Session notification service.
const (
	notifyBusName   = "org.freedesktop.Notifications"
	notifyPath      = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyInterface = "org.freedesktop.Notifications"
)

// Hints attached to every balloon so the server can associate it with a tray.
const (
	HintWindow = "x-traynote-window"
	HintAppID  = "x-traynote-app-id"
)

// busObject is the subset of dbus.BusObject used to send balloons.
type busObject interface {
	Call(method string, flags dbus.Flags, args ...any) *dbus.Call
}

// Balloon sends balloons to the session notification service.
type Balloon struct {
	obj     busObject
	appName string
	slots   *slots
	logger  *slog.Logger

	mu       sync.Mutex
	onClosed ClosedFunc
}

// NewBalloon creates a balloon backend on conn.
func NewBalloon(conn *dbus.Conn, appName string, logger *slog.Logger) *Balloon {
	return newBalloon(conn.Object(notifyBusName, notifyPath), appName, logger)
}

func newBalloon(obj busObject, appName string, logger *slog.Logger) *Balloon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Balloon{
		obj:     obj,
		appName: appName,
		slots:   newSlots(),
		logger:  logger,
	}
}

// Notify shows a balloon for handle, replacing any balloon it already shows.
// Empty summary and body with a zero timeout dismiss the current balloon.
func (b *Balloon) Notify(handle notifier.NativeHandle, summary, body string, expireTimeout int32, icon string) error {
	if summary == "" && body == "" && expireTimeout == 0 {
		return b.dismiss(handle)
	}

	hints := map[string]dbus.Variant{
		HintWindow: dbus.MakeVariant(handle.WindowHandle),
		HintAppID:  dbus.MakeVariant(handle.AppID),
	}

	replaces := b.slots.get(handle)
	call := b.obj.Call(notifyInterface+".Notify", 0,
		b.appName,
		replaces,
		icon,
		summary,
		body,
		[]string{},
		hints,
		expireTimeout,
	)

	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	b.slots.set(handle, id)

	b.logger.Debug("balloon shown", "server_id", id, "replaces", replaces, "app_id", handle.AppID)
	return nil
}

func (b *Balloon) dismiss(handle notifier.NativeHandle) error {
	id, ok := b.slots.take(handle)
	if !ok {
		return nil
	}

	if err := b.obj.Call(notifyInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close notification %d: %w", id, err)
	}
	b.logger.Debug("balloon dismissed", "server_id", id, "app_id", handle.AppID)
	return nil
}

// SetClosedCallback sets the function called when the server closes a
// tray's balloon on its own. Balloons dismissed through Notify are not
// reported.
func (b *Balloon) SetClosedCallback(cb ClosedFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onClosed = cb
}

// Listen empties slots whose balloon the server closed on its own, so the
// next balloon does not try to replace a notification that no longer exists,
// and reports each such closure to the closed callback.
// It blocks until ctx is done.
func (b *Balloon) Listen(ctx context.Context, conn *dbus.Conn) error {
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(notifyPath),
		dbus.WithMatchInterface(notifyInterface),
		dbus.WithMatchMember("NotificationClosed"),
	); err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			b.handleSignal(sig)
		}
	}
}

func (b *Balloon) handleSignal(sig *dbus.Signal) {
	if sig == nil || sig.Name != notifyInterface+".NotificationClosed" || len(sig.Body) < 1 {
		return
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return
	}
	handle, ok := b.slots.release(id)
	if !ok {
		return
	}

	reason := model.CloseReasonUndefined
	if len(sig.Body) > 1 {
		if r, ok := sig.Body[1].(uint32); ok {
			reason = model.CloseReason(r)
		}
	}
	b.logger.Debug("balloon closed by server", "server_id", id, "reason", reason, "app_id", handle.AppID)

	b.mu.Lock()
	cb := b.onClosed
	b.mu.Unlock()
	if cb != nil {
		cb(handle, reason)
	}
}
