package display

import (
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/traynote/internal/config"
	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/notifier"
)

// popupState is a visible popup. Only MaxVisible exist at a time.
type popupState struct {
	popup     *Popup
	req       *model.Request
	createdAt time.Time
	timeout   time.Duration // Zero means never expires
	timer     *time.Timer
	paused    bool
}

// Manager shows notifications as popups. Notifications beyond MaxVisible are
// queued without creating GTK objects and shown as space frees up.
//
// Methods other than Start, ShowNotify, CloseNotify and UpdateConfig must run
// on the GTK main loop.
type Manager struct {
	app    *gtk.Application
	logger *slog.Logger
	idle   func(func())

	mu      sync.Mutex
	cfg     *config.Config
	popups  map[model.ID]*popupState
	queue   *pendingQueue
	stopped bool

	onClosed notifier.ClosedFunc
	onAction notifier.ActionFunc
}

// NewManager creates a new display manager.
func NewManager(app *gtk.Application, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}

	return &Manager{
		app:    app,
		logger: logger,
		idle:   func(f func()) { glib.IdleAdd(f) },
		cfg:    cfg,
		popups: make(map[model.ID]*popupState),
		queue:  newPendingQueue(),
	}
}

// Start schedules installation of the popup style on display. It may be
// called from any goroutine.
func (m *Manager) Start(display *gdk.Display) error {
	if display == nil {
		return &DisplayError{Message: "no display available"}
	}
	m.idle(func() { applyStyle(display) })

	m.logger.Info("display manager started")
	return nil
}

// Stop closes all popups. Popups still visible are reported as dismissed.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	m.closeAll(model.CloseReasonDismissed)
	m.logger.Info("display manager stopped")
}

// SetCloseCallback sets the callback for popup close events.
func (m *Manager) SetCloseCallback(cb notifier.ClosedFunc) {
	m.onClosed = cb
}

// SetActionCallback sets the callback for action invocation events.
func (m *Manager) SetActionCallback(cb notifier.ActionFunc) {
	m.onAction = cb
}

// ShowNotify schedules req for display on the GTK main loop.
func (m *Manager) ShowNotify(req *model.Request) error {
	if req == nil {
		return errors.New("nil request")
	}

	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return &DisplayError{Message: "display manager stopped"}
	}

	m.idle(func() { m.show(req) })
	return nil
}

// CloseNotify schedules the popup for id to close with CloseReasonClosed.
func (m *Manager) CloseNotify(id model.ID) {
	m.idle(func() { m.close(id, model.CloseReasonClosed) })
}

func (m *Manager) show(req *model.Request) {
	m.mu.Lock()
	if state, exists := m.popups[req.ID]; exists {
		// Replace in place.
		m.stopTimerLocked(state)
		state.popup.Close()
		delete(m.popups, req.ID)
	}

	if len(m.popups) >= m.cfg.Display.MaxVisible {
		m.queue.push(req)
		m.logger.Debug("queued notification",
			"id", req.ID,
			"urgency", req.Urgency(),
			"queue_size", m.queue.len(),
		)
		m.mu.Unlock()
		return
	}

	m.showPopupLocked(req)
	m.mu.Unlock()
}

// showPopupLocked creates and presents a popup. Caller must hold the lock.
func (m *Manager) showPopupLocked(req *model.Request) {
	position := len(m.popups)
	id := req.ID

	popup := NewPopup(m.app, req, m.cfg, m.logger)
	popup.OnClose(func(reason model.CloseReason) {
		m.handlePopupClosed(id, reason)
	})
	popup.OnAction(func(actionKey string) {
		if m.onAction != nil {
			m.onAction(id, actionKey)
		}
	})
	popup.OnHover(func(hovering bool) {
		m.handleHover(id, hovering)
	})
	popup.OnCloseAll(func() {
		m.idle(func() { m.closeAll(model.CloseReasonDismissed) })
	})

	timeout := time.Duration(m.cfg.ResolveTimeout(req.ExpireTimeout, req.Urgency())) * time.Millisecond
	state := &popupState{
		popup:     popup,
		req:       req,
		createdAt: time.Now(),
		timeout:   timeout,
	}
	m.popups[id] = state
	m.startTimerLocked(id, state)

	popup.Show(position)

	m.logger.Debug("showed popup",
		"id", id,
		"ref", req.Ref,
		"position", position,
		"timeout", timeout,
		"active_popups", len(m.popups),
	)
}

// startTimerLocked arms the expiry timer for state. Caller must hold the lock.
func (m *Manager) startTimerLocked(id model.ID, state *popupState) {
	if state.timeout <= 0 {
		return
	}
	state.timer = time.AfterFunc(state.timeout, func() {
		m.idle(func() { m.expire(id, state) })
	})
}

func (m *Manager) stopTimerLocked(state *popupState) {
	if state.timer != nil {
		state.timer.Stop()
		state.timer = nil
	}
}

// expire closes the popup if state is still the one shown for id.
func (m *Manager) expire(id model.ID, state *popupState) {
	m.mu.Lock()
	current, exists := m.popups[id]
	shouldClose := exists && current == state && !state.paused
	m.mu.Unlock()

	if shouldClose {
		m.close(id, model.CloseReasonExpired)
	}
}

// close removes id whether it is visible or queued and reports reason.
func (m *Manager) close(id model.ID, reason model.CloseReason) {
	m.mu.Lock()
	state, visible := m.popups[id]
	if visible {
		delete(m.popups, id)
		m.stopTimerLocked(state)
	}
	queued := !visible && m.queue.remove(id)
	m.mu.Unlock()

	if !visible && !queued {
		return
	}

	if visible {
		state.popup.Close()
		state.popup = nil
	}

	m.logger.Debug("closed notification", "id", id, "reason", reason, "was_visible", visible)
	m.report(id, reason)

	if visible {
		m.showNextQueued()
		m.updatePositions()
	}
}

// closeAll closes every popup and queued notification.
func (m *Manager) closeAll(reason model.CloseReason) {
	m.mu.Lock()
	states := make(map[model.ID]*popupState, len(m.popups))
	for id, state := range m.popups {
		m.stopTimerLocked(state)
		states[id] = state
	}
	m.popups = make(map[model.ID]*popupState)
	queued := m.queue.drain()
	m.mu.Unlock()

	for id, state := range states {
		state.popup.Close()
		state.popup = nil
		m.report(id, reason)
	}
	for _, id := range queued {
		m.report(id, reason)
	}
}

func (m *Manager) report(id model.ID, reason model.CloseReason) {
	if m.onClosed != nil {
		m.onClosed(id, reason)
	}
}

// showNextQueued displays queued notifications while there is room.
func (m *Manager) showNextQueued() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.popups) < m.cfg.Display.MaxVisible {
		req := m.queue.pop()
		if req == nil {
			return
		}
		m.showPopupLocked(req)
	}
}

// handlePopupClosed handles a popup closed by the user.
func (m *Manager) handlePopupClosed(id model.ID, reason model.CloseReason) {
	m.mu.Lock()
	state, exists := m.popups[id]
	if exists {
		delete(m.popups, id)
		m.stopTimerLocked(state)
		state.popup = nil
	}
	m.mu.Unlock()

	if !exists {
		return
	}

	m.report(id, reason)
	m.showNextQueued()
	m.updatePositions()
}

// handleHover pauses the expiry timer while the pointer is over a popup and
// restarts it in full when the pointer leaves.
func (m *Manager) handleHover(id model.ID, hovering bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.cfg.Behavior.PauseOnHover {
		return
	}

	state, exists := m.popups[id]
	if !exists {
		return
	}

	state.paused = hovering
	if hovering {
		m.stopTimerLocked(state)
	} else if state.timer == nil {
		m.startTimerLocked(id, state)
	}
}

// updatePositions restacks visible popups in creation order.
func (m *Manager) updatePositions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make([]*popupState, 0, len(m.popups))
	for _, state := range m.popups {
		states = append(states, state)
	}
	slices.SortFunc(states, func(a, b *popupState) int {
		return a.createdAt.Compare(b.createdAt)
	})

	for i, state := range states {
		state.popup.UpdatePosition(i)
	}
}

// UpdateConfig applies a reloaded configuration. Visible popups are
// restacked and, if max_visible grew, queued notifications are shown.
// Popups beyond a reduced max_visible stay until they close.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.mu.Lock()
	oldMaxVisible := m.cfg.Display.MaxVisible
	m.cfg = cfg
	m.mu.Unlock()

	m.logger.Debug("display manager config updated",
		"old_max_visible", oldMaxVisible,
		"new_max_visible", cfg.Display.MaxVisible,
	)

	m.idle(func() {
		m.mu.Lock()
		for _, state := range m.popups {
			state.popup.SetConfig(cfg)
		}
		m.mu.Unlock()

		m.updatePositions()
		m.showNextQueued()
	})
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
