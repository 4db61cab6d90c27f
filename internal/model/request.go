// Package model defines the core data structures for traynote.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/oklog/ulid/v2"
)

// Urgency levels matching freedesktop spec.
const (
	UrgencyLow      = 0
	UrgencyNormal   = 1
	UrgencyCritical = 2
)

// ID identifies a notification. It is chosen by the caller and must not be
// reused while the notification it names is still outstanding.
type ID uint32

// ReservedIDBase is the first id kept for the daemon's own notices. Ids at or
// above it are not accepted from callers.
const ReservedIDBase ID = 0xFFFFFF00

// Reserved reports whether id falls in the range kept for daemon notices.
func (id ID) Reserved() bool {
	return id >= ReservedIDBase
}

// Target is the tray or window a notification is shown against.
type Target interface {
	// AppID identifies the requesting application to the OS notification subsystem.
	AppID() uint32
}

// WindowHandler is implemented by targets that can yield a native window handle.
// Targets without it cannot be served by the native backend.
type WindowHandler interface {
	WindowHandle() uint64
}

// Request is a single show request.
type Request struct {
	ID            ID
	AppName       string
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32  // -1 = backend default, 0 = never expire
	Icon          string // Icon name or path for the balloon/popup image

	// Ref correlates log lines for one request.
	Ref string

	// Target may be nil when no tray or window is available.
	Target Target
}

// Action represents a notification action with key and label.
type Action struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// Validation errors.
var (
	ErrEmptySummary   = errors.New("summary cannot be empty")
	ErrInvalidTimeout = errors.New("expire_timeout must be -1 or greater")
)

// NewRef generates a ULID used to correlate a request across components.
func NewRef() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// Validate checks that the request can be shown.
func (r *Request) Validate() error {
	if r.Summary == "" {
		return ErrEmptySummary
	}
	if r.ExpireTimeout < -1 {
		return ErrInvalidTimeout
	}
	return nil
}

// ParsedActions converts the flat action array to structured form.
// Actions are passed as alternating key/label pairs; a trailing key without
// a label is ignored.
func (r *Request) ParsedActions() []Action {
	actions := make([]Action, 0, len(r.Actions)/2)
	for i := 0; i+1 < len(r.Actions); i += 2 {
		actions = append(actions, Action{
			Key:   r.Actions[i],
			Label: r.Actions[i+1],
		})
	}
	return actions
}

// WantsActions reports whether the request carries at least one complete action.
func (r *Request) WantsActions() bool {
	return len(r.Actions) >= 2
}

// HasWindowHandle reports whether the target can yield a native window handle.
func (r *Request) HasWindowHandle() bool {
	if r.Target == nil {
		return false
	}
	_, ok := r.Target.(WindowHandler)
	return ok
}

// Urgency extracts the urgency hint from the request.
// Returns UrgencyNormal if not specified.
func (r *Request) Urgency() int {
	if v, ok := r.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok && int(b) <= UrgencyCritical {
			return int(b)
		}
	}
	return UrgencyNormal
}

// Category extracts the category hint.
func (r *Request) Category() string {
	return r.stringHint("category")
}

// DesktopEntry extracts the desktop-entry hint.
func (r *Request) DesktopEntry() string {
	return r.stringHint("desktop-entry")
}

// ImagePath extracts the image-path hint.
func (r *Request) ImagePath() string {
	return r.stringHint("image-path")
}

// Resident returns true if the resident hint is set.
// Resident notifications are not closed after an action is invoked.
func (r *Request) Resident() bool {
	if v, ok := r.Hints["resident"]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

// IconName returns the best icon for display: the explicit icon, then the
// image-path hint, then the application icon.
func (r *Request) IconName() string {
	switch {
	case r.Icon != "":
		return r.Icon
	case r.ImagePath() != "":
		return r.ImagePath()
	default:
		return r.AppIcon
	}
}

func (r *Request) stringHint(key string) string {
	if v, ok := r.Hints[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}
