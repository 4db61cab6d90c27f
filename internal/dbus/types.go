package dbus

import (
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/traynote/internal/model"
)

const (
	// BusName is the well-known name claimed by traynoted.
	BusName = "io.github.jmylchreest.Traynote"
	// Path is the object path of the service.
	Path = dbus.ObjectPath("/io/github/jmylchreest/Traynote")
	// Interface is the service interface name.
	Interface = "io.github.jmylchreest.Traynote"

	// ErrorDuplicateID is returned by Show when the id is still outstanding.
	ErrorDuplicateID = Interface + ".Error.DuplicateID"
	// ErrorInvalidArgs is returned by Show for requests that cannot be shown.
	ErrorInvalidArgs = "org.freedesktop.DBus.Error.InvalidArgs"
)

// Capabilities lists what the service can display.
var Capabilities = []string{
	"actions",
	"body",
	"body-markup",
	"icon-static",
	"tray-balloon",
}

// ServerInfo contains the information returned by GetServerInformation.
type ServerInfo struct {
	Name    string
	Vendor  string
	Version string
}

// DefaultServerInfo returns the default server information.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:    "traynoted",
		Vendor:  "traynote",
		Version: "dev",
	}
}

// statusRecord is the wire form of model.Status: (usts).
type statusRecord struct {
	ID      uint32
	Backend string
	ShownAt uint64
	Ref     string
}

func (r statusRecord) status() model.Status {
	return model.Status{
		ID:      model.ID(r.ID),
		Backend: r.Backend,
		ShownAt: time.Unix(int64(r.ShownAt), 0),
		Ref:     r.Ref,
	}
}

// ShowArgs are the arguments of the Show method.
type ShowArgs struct {
	ID            model.ID
	AppName       string
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string
	Hints         map[string]dbus.Variant
	ExpireTimeout int32
}

func (a ShowArgs) values() []any {
	actions := a.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := a.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	return []any{uint32(a.ID), a.AppName, a.AppIcon, a.Summary, a.Body, actions, hints, a.ExpireTimeout}
}
