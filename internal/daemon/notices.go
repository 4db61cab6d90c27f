package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/notifier"
)

// NoticeIDBase is the first id used for daemon notices.
const NoticeIDBase = model.ReservedIDBase

// NoticeLevel indicates the severity of a daemon notice.
type NoticeLevel int

const (
	// NoticeLevelInfo is for informational messages (low urgency).
	NoticeLevelInfo NoticeLevel = iota
	// NoticeLevelWarning is for warning messages (normal urgency).
	NoticeLevelWarning
	// NoticeLevelError is for error messages (critical urgency).
	NoticeLevelError
)

// Shower is the part of the notifier used to post notices.
type Shower interface {
	Show(req *model.Request) error
	Close(id model.ID) notifier.Owner
}

// Notices posts notifications about traynoted itself. Each key owns one id;
// a new notice for a key replaces the previous one. Repeats of a key within
// the minimum interval are dropped.
type Notices struct {
	mu     sync.Mutex
	logger *slog.Logger

	shower Shower
	target func() model.Target

	ids    map[string]model.ID
	nextID model.ID

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	now            func() time.Time

	enabled bool
}

// NewNotices creates a Notices posting through shower.
func NewNotices(shower Shower, logger *slog.Logger) *Notices {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notices{
		logger:         logger,
		shower:         shower,
		ids:            make(map[string]model.ID),
		nextID:         NoticeIDBase,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		now:            time.Now,
		enabled:        true,
	}
}

// SetTarget sets the function supplying the target of each notice.
func (n *Notices) SetTarget(target func() model.Target) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = target
}

// SetEnabled enables or disables notices.
func (n *Notices) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Notify posts a notice unless it is rate-limited.
func (n *Notices) Notify(key, summary, body string, level NoticeLevel) {
	req, ok := n.prepare(key, summary, body, level)
	if !ok {
		return
	}

	n.logger.Debug("posting notice", "key", key, "id", req.ID, "summary", summary, "level", level)

	n.shower.Close(req.ID)
	if err := n.shower.Show(req); err != nil {
		n.logger.Warn("failed to post notice", "key", key, "id", req.ID, "error", err)
	}
}

func (n *Notices) prepare(key, summary, body string, level NoticeLevel) (*model.Request, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled || n.shower == nil {
		return nil, false
	}

	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.logger.Debug("notice rate-limited", "key", key, "summary", summary)
		return nil, false
	}
	n.lastNotifyTime[key] = now

	id, ok := n.ids[key]
	if !ok {
		id = n.nextID
		n.nextID++
		n.ids[key] = id
	}

	ref, err := model.NewRef()
	if err != nil {
		n.logger.Warn("failed to generate notice ref", "error", err)
	}

	var target model.Target
	if n.target != nil {
		target = n.target()
	}

	urgency, icon := levelStyle(level)
	return &model.Request{
		ID:      id,
		AppName: "traynoted",
		AppIcon: icon,
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(urgency),
			"category":      godbus.MakeVariant("device"),
			"desktop-entry": godbus.MakeVariant("traynoted"),
		},
		ExpireTimeout: 5000,
		Ref:           ref,
		Target:        target,
	}, true
}

func levelStyle(level NoticeLevel) (byte, string) {
	switch level {
	case NoticeLevelInfo:
		return model.UrgencyLow, "dialog-information"
	case NoticeLevelError:
		return model.UrgencyCritical, "dialog-error"
	default:
		return model.UrgencyNormal, "dialog-warning"
	}
}

// NotifyConfigReloaded posts a notice that the configuration was reloaded.
func (n *Notices) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"traynoted configuration has been successfully reloaded.",
		NoticeLevelInfo,
	)
}

// NotifyConfigError posts a notice that a changed configuration was rejected.
func (n *Notices) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NoticeLevelWarning,
	)
}

// NotifyBalloonsUnavailable posts a notice that only popups will be used.
func (n *Notices) NotifyBalloonsUnavailable(err error) {
	n.Notify(
		"balloons-unavailable",
		"Tray Balloons Unavailable",
		"Notifications will be shown as popups: "+err.Error(),
		NoticeLevelWarning,
	)
}
