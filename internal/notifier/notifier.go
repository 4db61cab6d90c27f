package notifier

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/traynote/internal/model"
)

// NativeBackend is the OS balloon primitive. A call with empty summary and
// body, zero timeout and no icon dismisses the balloon shown for handle.
type NativeBackend interface {
	Notify(handle NativeHandle, summary, body string, expireTimeout int32, icon string) error
}

// FallbackBackend is the toolkit notification display. Implementations must
// not invoke the closed or action callbacks synchronously from ShowNotify.
type FallbackBackend interface {
	ShowNotify(req *model.Request) error
	CloseNotify(id model.ID)
}

// ClosedFunc is called when a fallback notification is closed.
type ClosedFunc func(id model.ID, reason model.CloseReason)

// ActionFunc is called when an action is invoked on a fallback notification.
type ActionFunc func(id model.ID, actionKey string)

// FallbackFactory builds the fallback backend. It is called at most once per
// successful construction; a failed attempt is retried on the next request
// that needs the fallback.
type FallbackFactory func(onClosed ClosedFunc, onAction ActionFunc) (FallbackBackend, error)

// Config holds the collaborators of a Notifier.
type Config struct {
	Native          NativeBackend
	FallbackFactory FallbackFactory

	// OnClosed and OnAction are handed to the fallback backend. They are not
	// interpreted by the Notifier.
	OnClosed ClosedFunc
	OnAction ActionFunc

	// Dispatcher runs native calls. Nil runs them inline.
	Dispatcher *Dispatcher

	// ForceFallback routes every request to the fallback backend.
	ForceFallback bool

	Logger *slog.Logger
}

// Notifier is the show/close entry point. It is safe for concurrent use.
type Notifier struct {
	mu            sync.Mutex
	registry      *Registry
	fallback      FallbackBackend
	factory       FallbackFactory
	forceFallback bool

	native     NativeBackend
	dispatcher *Dispatcher
	onClosed   ClosedFunc
	onAction   ActionFunc
	logger     *slog.Logger
}

// New creates a Notifier.
func New(cfg Config) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = NewDispatcher(nil)
	}

	return &Notifier{
		registry:      NewRegistry(),
		factory:       cfg.FallbackFactory,
		forceFallback: cfg.ForceFallback,
		native:        cfg.Native,
		dispatcher:    dispatcher,
		onClosed:      cfg.OnClosed,
		onAction:      cfg.OnAction,
		logger:        logger,
	}
}

// SetForceFallback changes the process-wide fallback toggle.
func (n *Notifier) SetForceFallback(force bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.forceFallback != force {
		n.logger.Info("fallback toggle changed", "force_fallback", force)
	}
	n.forceFallback = force
}

// FallbackLoaded reports whether the fallback backend has been constructed.
func (n *Notifier) FallbackLoaded() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.fallback != nil
}

// Show routes req to exactly one backend and records which one owns it.
//
// The only error returned is a *DuplicateIDError, when req.ID is already
// outstanding; nothing is shown in that case. Requests that cannot be served
// by any backend are logged and dropped.
func (n *Notifier) Show(req *model.Request) error {
	n.mu.Lock()

	if owner := n.registry.ResolveOwner(req.ID); owner.Kind != OwnerUnknown {
		n.mu.Unlock()
		err := &DuplicateIDError{ID: req.ID, Owner: owner}
		n.logger.Error("notification id reused while outstanding", "id", req.ID, "ref", req.Ref, "owner", owner.Kind)
		return err
	}

	// Without a native backend a tray target can only be served by the
	// fallback.
	hasWindowHandle := req.HasWindowHandle()
	nativeAvailable := n.native != nil
	wantsActions := req.WantsActions()
	choice := Resolve(hasWindowHandle && nativeAvailable, wantsActions, n.forceFallback)

	n.logger.Debug("routing notification",
		"id", req.ID,
		"ref", req.Ref,
		"backend", choice,
		"has_window_handle", hasWindowHandle,
		"native_available", nativeAvailable,
		"wants_actions", wantsActions,
		"force_fallback", n.forceFallback,
	)

	if choice == BackendFallback {
		err := n.showFallbackLocked(req)
		n.mu.Unlock()
		return err
	}

	work, err := n.prepareNativeLocked(req)
	n.mu.Unlock()
	if err != nil {
		return err
	}
	if work != nil {
		n.dispatcher.Run(work)
	}
	return nil
}

// showFallbackLocked delegates to the fallback backend. Caller must hold the lock.
func (n *Notifier) showFallbackLocked(req *model.Request) error {
	fb, err := n.fallbackLocked()
	if err != nil {
		n.logger.Warn("cannot show notification", "id", req.ID, "ref", req.Ref, "error", err)
		return nil
	}

	if err := fb.ShowNotify(req); err != nil {
		n.logger.Warn("fallback backend failed to show notification", "id", req.ID, "ref", req.Ref,
			"error", &BackendError{Backend: BackendFallback, Op: "show", Cause: err})
		return nil
	}

	return n.registry.RecordFallback(req.ID, req.Ref)
}

// fallbackLocked returns the fallback backend, constructing it on first use.
// Caller must hold the lock.
func (n *Notifier) fallbackLocked() (FallbackBackend, error) {
	if n.fallback != nil {
		return n.fallback, nil
	}
	if n.factory == nil {
		return nil, fmt.Errorf("%w: no fallback configured", ErrBackendUnavailable)
	}

	fb, err := n.factory(n.handleFallbackClosed, n.handleFallbackAction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if fb == nil {
		return nil, fmt.Errorf("%w: factory returned no backend", ErrBackendUnavailable)
	}

	n.logger.Info("fallback backend loaded")
	n.fallback = fb
	return fb, nil
}

// prepareNativeLocked records req as native-owned and returns the call to
// dispatch outside the lock. Caller must hold the lock.
func (n *Notifier) prepareNativeLocked(req *model.Request) (func(), error) {
	handle, err := nativeHandle(req.Target)
	if err != nil {
		n.logger.Warn("cannot show notification", "id", req.ID, "ref", req.Ref, "error", err)
		return nil, nil
	}
	if err := n.registry.RecordNative(req.ID, req.Ref, handle); err != nil {
		return nil, err
	}

	n.logger.Debug("showing native notification",
		"id", req.ID,
		"ref", req.Ref,
		"window_handle", fmt.Sprintf("%#x", handle.WindowHandle),
		"app_id", handle.AppID,
	)

	summary, body, timeout, icon := req.Summary, req.Body, req.ExpireTimeout, req.IconName()
	return func() {
		n.callNative(req.ID, "show", handle, summary, body, timeout, icon)
	}, nil
}

// nativeHandle extracts the (window handle, application id) pair from target.
func nativeHandle(target model.Target) (NativeHandle, error) {
	if target == nil {
		return NativeHandle{}, ErrNoTarget
	}
	wh, ok := target.(model.WindowHandler)
	if !ok {
		return NativeHandle{}, ErrNoTarget
	}
	hwnd := wh.WindowHandle()
	if hwnd == 0 {
		return NativeHandle{}, fmt.Errorf("%w: window handle not available", ErrNoTarget)
	}
	return NativeHandle{WindowHandle: hwnd, AppID: target.AppID()}, nil
}

func (n *Notifier) callNative(id model.ID, op string, handle NativeHandle, summary, body string, timeout int32, icon string) {
	if err := n.native.Notify(handle, summary, body, timeout, icon); err != nil {
		n.logger.Warn("native backend call failed", "id", id,
			"error", &BackendError{Backend: BackendNative, Op: op, Cause: err})
	}
}

// Close routes a close request to the backend that showed id and returns the
// owner id had when the request was accepted. Unknown ids, including ids that
// were already closed, are ignored and report OwnerUnknown.
func (n *Notifier) Close(id model.ID) Owner {
	n.mu.Lock()
	owner := n.registry.ResolveOwner(id)
	n.registry.Forget(id)
	fb := n.fallback
	n.mu.Unlock()

	switch owner.Kind {
	case OwnerFallback:
		n.logger.Debug("closing fallback notification", "id", id)
		if fb != nil {
			fb.CloseNotify(id)
		}
	case OwnerNative:
		handle := owner.Handle
		n.logger.Debug("closing native notification",
			"id", id,
			"window_handle", fmt.Sprintf("%#x", handle.WindowHandle),
			"app_id", handle.AppID,
		)
		n.dispatcher.Run(func() {
			n.callNative(id, "close", handle, "", "", 0, "")
		})
	}
	return owner
}

// ForgetNative drops every native id shown on the tray identified by handle,
// without contacting the native backend, and returns the ids it dropped. Use
// it when the balloon for that tray has been closed by the OS.
func (n *Notifier) ForgetNative(handle NativeHandle) []model.ID {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := n.registry.ForgetHandle(handle)
	if len(ids) > 0 {
		n.logger.Debug("balloon closed outside the daemon", "ids", ids,
			"window_handle", fmt.Sprintf("%#x", handle.WindowHandle),
			"app_id", handle.AppID,
		)
	}
	return ids
}

// Outstanding returns all notifications that have been shown and not closed.
func (n *Notifier) Outstanding() []Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.Snapshot()
}

// handleFallbackClosed forgets ids the fallback closed on its own (expiry,
// user dismissal) before passing the event on. Ids closed through Close have
// already been forgotten and may have been reused since.
func (n *Notifier) handleFallbackClosed(id model.ID, reason model.CloseReason) {
	if reason != model.CloseReasonClosed {
		n.mu.Lock()
		if n.registry.ResolveOwner(id).Kind == OwnerFallback {
			n.registry.Forget(id)
		}
		n.mu.Unlock()
	}

	if n.onClosed != nil {
		n.onClosed(id, reason)
	}
}

func (n *Notifier) handleFallbackAction(id model.ID, actionKey string) {
	if n.onAction != nil {
		n.onAction(id, actionKey)
	}
}
