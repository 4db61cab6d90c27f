package notifier

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/traynote/internal/model"
)

type nativeCall struct {
	Handle  NativeHandle
	Summary string
	Body    string
	Timeout int32
	Icon    string
}

type fakeNative struct {
	mu    sync.Mutex
	calls []nativeCall
	err   error
	hook  func(call nativeCall)
}

func (f *fakeNative) Notify(handle NativeHandle, summary, body string, expireTimeout int32, icon string) error {
	call := nativeCall{Handle: handle, Summary: summary, Body: body, Timeout: expireTimeout, Icon: icon}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return f.err
}

func (f *fakeNative) Calls() []nativeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]nativeCall(nil), f.calls...)
}

type fakeFallback struct {
	mu       sync.Mutex
	shown    []model.ID
	closed   []model.ID
	showErr  error
	onClosed ClosedFunc
	onAction ActionFunc
}

func (f *fakeFallback) ShowNotify(req *model.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.showErr != nil {
		return f.showErr
	}
	f.shown = append(f.shown, req.ID)
	return nil
}

func (f *fakeFallback) CloseNotify(id model.ID) {
	f.mu.Lock()
	f.closed = append(f.closed, id)
	onClosed := f.onClosed
	f.mu.Unlock()

	// Report synchronously, as a toolkit popup closing in place would.
	if onClosed != nil {
		onClosed(id, model.CloseReasonClosed)
	}
}

func (f *fakeFallback) Shown() []model.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ID(nil), f.shown...)
}

func (f *fakeFallback) Closed() []model.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ID(nil), f.closed...)
}

// countingFactory builds fb, failing the first `failures` attempts.
type countingFactory struct {
	mu       sync.Mutex
	fb       *fakeFallback
	attempts int
	built    int
	failures int
}

func (c *countingFactory) build(onClosed ClosedFunc, onAction ActionFunc) (FallbackBackend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	if c.attempts <= c.failures {
		return nil, errors.New("no display available")
	}
	c.built++
	c.fb.mu.Lock()
	c.fb.onClosed = onClosed
	c.fb.onAction = onAction
	c.fb.mu.Unlock()
	return c.fb, nil
}

type tray struct {
	hwnd  uint64
	appID uint32
}

func (t *tray) AppID() uint32        { return t.appID }
func (t *tray) WindowHandle() uint64 { return t.hwnd }

// headless has an application id but no window handle accessor.
type headless struct{ appID uint32 }

func (h *headless) AppID() uint32 { return h.appID }

type harness struct {
	notifier *Notifier
	native   *fakeNative
	fallback *fakeFallback
	factory  *countingFactory
	logs     *bytes.Buffer
}

// Owner returns the current owner of id.
func (n *Notifier) Owner(id model.ID) Owner {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registry.ResolveOwner(id)
}

func newHarness(t *testing.T, opts ...func(*Config)) *harness {
	t.Helper()

	h := &harness{
		native:   &fakeNative{},
		fallback: &fakeFallback{},
		logs:     &bytes.Buffer{},
	}
	h.factory = &countingFactory{fb: h.fallback}

	cfg := Config{
		Native:          h.native,
		FallbackFactory: h.factory.build,
		Logger:          slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	h.notifier = New(cfg)
	return h
}

func showRequest(id model.ID, target model.Target, actions ...string) *model.Request {
	return &model.Request{
		ID:            id,
		AppName:       "test",
		Summary:       fmt.Sprintf("summary %d", id),
		Body:          "body",
		Actions:       actions,
		ExpireTimeout: 5000,
		Icon:          "dialog-information",
		Target:        target,
	}
}

func TestShow_NativePath(t *testing.T) {
	h := newHarness(t)

	err := h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5}))
	require.NoError(t, err)

	owner := h.notifier.Owner(1)
	assert.Equal(t, OwnerNative, owner.Kind)
	assert.Equal(t, NativeHandle{WindowHandle: 0x10, AppID: 5}, owner.Handle)

	calls := h.native.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, nativeCall{
		Handle:  NativeHandle{WindowHandle: 0x10, AppID: 5},
		Summary: "summary 1",
		Body:    "body",
		Timeout: 5000,
		Icon:    "dialog-information",
	}, calls[0])

	assert.Empty(t, h.fallback.Shown())
	assert.Equal(t, 0, h.factory.attempts, "fallback must not be built for native requests")
}

func TestShow_NativePathIsScheduled(t *testing.T) {
	q := &queueScheduler{}
	h := newHarness(t, func(c *Config) { c.Dispatcher = NewDispatcher(q.schedule) })

	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))

	// Registered immediately, shown once the UI loop runs.
	assert.Equal(t, OwnerNative, h.notifier.Owner(1).Kind)
	assert.Empty(t, h.native.Calls())

	q.drain()
	assert.Len(t, h.native.Calls(), 1)
}

func TestShow_NativeCallRunsOutsideLock(t *testing.T) {
	h := newHarness(t)

	var seen Owner
	h.native.hook = func(call nativeCall) {
		// Deadlocks if the Notifier still holds its lock.
		seen = h.notifier.Owner(1)
	}

	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))
	assert.Equal(t, OwnerNative, seen.Kind)
}

func TestShow_NoWindowHandleUsesFallback(t *testing.T) {
	targets := map[string]model.Target{
		"nil target":      nil,
		"headless target": &headless{appID: 5},
	}

	for name, target := range targets {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)

			require.NoError(t, h.notifier.Show(showRequest(2, target)))

			assert.Equal(t, OwnerFallback, h.notifier.Owner(2).Kind)
			assert.Equal(t, []model.ID{2}, h.fallback.Shown())
			assert.Empty(t, h.native.Calls())
			assert.True(t, h.notifier.FallbackLoaded())
		})
	}
}

func TestShow_ActionsUseFallback(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.notifier.Show(showRequest(3, &tray{hwnd: 0x10, appID: 5}, "default", "Open")))

	assert.Equal(t, OwnerFallback, h.notifier.Owner(3).Kind)
	assert.Equal(t, []model.ID{3}, h.fallback.Shown())
	assert.Empty(t, h.native.Calls())
}

func TestShow_ForcedFallback(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.ForceFallback = true })

	require.NoError(t, h.notifier.Show(showRequest(4, &tray{hwnd: 0x10, appID: 5})))
	assert.Equal(t, OwnerFallback, h.notifier.Owner(4).Kind)

	h.notifier.SetForceFallback(false)
	require.NoError(t, h.notifier.Show(showRequest(5, &tray{hwnd: 0x10, appID: 5})))
	assert.Equal(t, OwnerNative, h.notifier.Owner(5).Kind)
}

func TestShow_FallbackBuiltOnce(t *testing.T) {
	h := newHarness(t)

	for id := model.ID(1); id <= 5; id++ {
		require.NoError(t, h.notifier.Show(showRequest(id, nil)))
	}

	assert.Equal(t, 1, h.factory.built)
	assert.Len(t, h.fallback.Shown(), 5)
}

func TestShow_FallbackUnavailable(t *testing.T) {
	h := newHarness(t)
	h.factory.failures = 1

	err := h.notifier.Show(showRequest(2, nil))
	require.NoError(t, err, "backend failures are not returned to the caller")

	assert.Equal(t, OwnerUnknown, h.notifier.Owner(2).Kind)
	assert.Empty(t, h.notifier.Outstanding())
	assert.Empty(t, h.fallback.Shown())
	assert.Empty(t, h.native.Calls())
	assert.False(t, h.notifier.FallbackLoaded())
	assert.Contains(t, h.logs.String(), "level=WARN")
	assert.Contains(t, h.logs.String(), ErrBackendUnavailable.Error())
	assert.Contains(t, h.logs.String(), "no display available")

	// The next request that needs the fallback tries again.
	require.NoError(t, h.notifier.Show(showRequest(3, nil)))
	assert.Equal(t, OwnerFallback, h.notifier.Owner(3).Kind)
	assert.Equal(t, 2, h.factory.attempts)
}

func TestShow_NoFallbackConfigured(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.FallbackFactory = nil })

	require.NoError(t, h.notifier.Show(showRequest(2, nil)))
	assert.Equal(t, OwnerUnknown, h.notifier.Owner(2).Kind)
	assert.Contains(t, h.logs.String(), ErrBackendUnavailable.Error())
}

func TestShow_FallbackShowError(t *testing.T) {
	h := newHarness(t)
	h.fallback.showErr = errors.New("popup failed")

	require.NoError(t, h.notifier.Show(showRequest(2, nil)))

	assert.Equal(t, OwnerUnknown, h.notifier.Owner(2).Kind)
	assert.Contains(t, h.logs.String(), "popup failed")
}

func TestShow_NoTarget(t *testing.T) {
	h := newHarness(t)

	// The tray exists but its window has no handle yet.
	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0, appID: 5})))

	assert.Equal(t, OwnerUnknown, h.notifier.Owner(1).Kind)
	assert.Empty(t, h.native.Calls())
	assert.Empty(t, h.fallback.Shown())
	assert.Contains(t, h.logs.String(), "level=WARN")
	assert.Contains(t, h.logs.String(), ErrNoTarget.Error())
}

func TestShow_NoNativeBackendUsesFallback(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Native = nil })

	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))

	assert.Equal(t, OwnerFallback, h.notifier.Owner(1).Kind)
	assert.Equal(t, []model.ID{1}, h.fallback.Shown())
	assert.NotContains(t, h.logs.String(), "level=WARN")

	assert.Equal(t, OwnerFallback, h.notifier.Close(1).Kind)
	assert.Equal(t, []model.ID{1}, h.fallback.Closed())
}

func TestShow_DuplicateID(t *testing.T) {
	tests := []struct {
		name   string
		first  model.Target
		second model.Target
		owner  OwnerKind
	}{
		{"native then native", &tray{hwnd: 0x10, appID: 5}, &tray{hwnd: 0x20, appID: 6}, OwnerNative},
		{"native then fallback", &tray{hwnd: 0x10, appID: 5}, nil, OwnerNative},
		{"fallback then native", nil, &tray{hwnd: 0x10, appID: 5}, OwnerFallback},
		{"fallback then fallback", nil, nil, OwnerFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.notifier.Show(showRequest(1, tt.first)))
			nativeBefore := len(h.native.Calls())
			fallbackBefore := len(h.fallback.Shown())

			err := h.notifier.Show(showRequest(1, tt.second))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDuplicateID)

			var dup *DuplicateIDError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.owner, dup.Owner.Kind)

			// Nothing new was shown and ownership is unchanged.
			assert.Len(t, h.native.Calls(), nativeBefore)
			assert.Len(t, h.fallback.Shown(), fallbackBefore)
			assert.Equal(t, tt.owner, h.notifier.Owner(1).Kind)
			assert.Contains(t, h.logs.String(), "level=ERROR")
		})
	}
}

func TestClose_Native(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))

	h.notifier.Close(1)

	calls := h.native.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, nativeCall{Handle: NativeHandle{WindowHandle: 0x10, AppID: 5}}, calls[1])
	assert.Equal(t, OwnerUnknown, h.notifier.Owner(1).Kind)
}

func TestClose_NativeUsesStoredHandle(t *testing.T) {
	h := newHarness(t)
	target := &tray{hwnd: 0x10, appID: 5}
	require.NoError(t, h.notifier.Show(showRequest(1, target)))

	// The tray changes after the notification was shown.
	target.hwnd = 0x99
	target.appID = 9

	h.notifier.Close(1)
	calls := h.native.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, NativeHandle{WindowHandle: 0x10, AppID: 5}, calls[1].Handle)
}

func TestClose_NativeIsScheduled(t *testing.T) {
	q := &queueScheduler{}
	h := newHarness(t, func(c *Config) { c.Dispatcher = NewDispatcher(q.schedule) })

	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))
	h.notifier.Close(1)

	assert.Equal(t, OwnerUnknown, h.notifier.Owner(1).Kind)
	assert.Equal(t, 2, q.pending())
	assert.Empty(t, h.native.Calls())

	q.drain()
	calls := h.native.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "summary 1", calls[0].Summary)
	assert.Empty(t, calls[1].Summary)
}

func TestClose_Fallback(t *testing.T) {
	var closed []model.ID
	h := newHarness(t, func(c *Config) {
		c.OnClosed = func(id model.ID, reason model.CloseReason) {
			assert.Equal(t, model.CloseReasonClosed, reason)
			closed = append(closed, id)
		}
	})
	require.NoError(t, h.notifier.Show(showRequest(2, nil)))

	h.notifier.Close(2)

	assert.Equal(t, []model.ID{2}, h.fallback.Closed())
	assert.Equal(t, []model.ID{2}, closed)
	assert.Equal(t, OwnerUnknown, h.notifier.Owner(2).Kind)
	assert.Empty(t, h.native.Calls())
}

func TestClose_Idempotent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))
	require.NoError(t, h.notifier.Show(showRequest(2, nil)))

	h.notifier.Close(1)
	h.notifier.Close(2)
	nativeAfterFirst := len(h.native.Calls())
	fallbackAfterFirst := len(h.fallback.Closed())

	h.notifier.Close(1)
	h.notifier.Close(2)

	assert.Len(t, h.native.Calls(), nativeAfterFirst)
	assert.Len(t, h.fallback.Closed(), fallbackAfterFirst)
	assert.Empty(t, h.notifier.Outstanding())
}

func TestClose_UnknownID(t *testing.T) {
	h := newHarness(t)

	h.notifier.Close(99)

	assert.Empty(t, h.native.Calls())
	assert.Empty(t, h.fallback.Closed())
	assert.Empty(t, h.logs.String())
	assert.Equal(t, 0, h.factory.attempts, "closing must not build the fallback")
}

func TestClose_ThenReuseID(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.notifier.Show(showRequest(1, nil)))
	h.notifier.Close(1)

	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))
	assert.Equal(t, OwnerNative, h.notifier.Owner(1).Kind)
}

func TestFallbackClosedCallback(t *testing.T) {
	type event struct {
		id     model.ID
		reason model.CloseReason
	}
	var events []event
	h := newHarness(t, func(c *Config) {
		c.OnClosed = func(id model.ID, reason model.CloseReason) {
			events = append(events, event{id, reason})
		}
	})

	require.NoError(t, h.notifier.Show(showRequest(2, nil)))
	require.NoError(t, h.notifier.Show(showRequest(3, nil)))

	// The popup expired on its own.
	h.fallback.onClosed(2, model.CloseReasonExpired)
	assert.Equal(t, OwnerUnknown, h.notifier.Owner(2).Kind)

	// A late "closed" report must not drop an id that is still live.
	h.fallback.onClosed(3, model.CloseReasonClosed)
	assert.Equal(t, OwnerFallback, h.notifier.Owner(3).Kind)

	assert.Equal(t, []event{{2, model.CloseReasonExpired}, {3, model.CloseReasonClosed}}, events)
}

func TestFallbackActionCallback(t *testing.T) {
	var got []string
	h := newHarness(t, func(c *Config) {
		c.OnAction = func(id model.ID, actionKey string) {
			got = append(got, fmt.Sprintf("%d:%s", id, actionKey))
		}
	})

	require.NoError(t, h.notifier.Show(showRequest(3, nil, "default", "Open")))
	h.fallback.onAction(3, "default")

	assert.Equal(t, []string{"3:default"}, got)
	assert.Equal(t, OwnerFallback, h.notifier.Owner(3).Kind, "actions do not close")
}

func TestNativeErrorIsLogged(t *testing.T) {
	h := newHarness(t)
	h.native.err = errors.New("balloon refused")

	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))

	assert.Equal(t, OwnerNative, h.notifier.Owner(1).Kind)
	assert.Contains(t, h.logs.String(), "balloon refused")
}

func TestForgetNative(t *testing.T) {
	h := newHarness(t)
	handle := NativeHandle{WindowHandle: 0x10, AppID: 5}
	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))
	require.NoError(t, h.notifier.Show(showRequest(2, &tray{hwnd: 0x10, appID: 5})))
	require.NoError(t, h.notifier.Show(showRequest(3, &tray{hwnd: 0x20, appID: 5})))
	require.NoError(t, h.notifier.Show(showRequest(4, nil)))

	assert.Equal(t, []model.ID{1, 2}, h.notifier.ForgetNative(handle))

	entries := h.notifier.Outstanding()
	require.Len(t, entries, 2)
	assert.Equal(t, model.ID(3), entries[0].ID)
	assert.Equal(t, model.ID(4), entries[1].ID)

	// Forgotten ids are not dismissed again.
	assert.Equal(t, OwnerUnknown, h.notifier.Close(1).Kind)
	assert.Len(t, h.native.Calls(), 3)

	assert.Empty(t, h.notifier.ForgetNative(handle))
}

func TestClose_ReturnsOwnerOnce(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))

	var wg sync.WaitGroup
	owners := make(chan Owner, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owners <- h.notifier.Close(1)
		}()
	}
	wg.Wait()
	close(owners)

	native := 0
	for owner := range owners {
		if owner.Kind == OwnerNative {
			native++
			assert.Equal(t, NativeHandle{WindowHandle: 0x10, AppID: 5}, owner.Handle)
		}
	}
	assert.Equal(t, 1, native, "exactly one close observes the owner")
}

func TestOutstanding(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.notifier.Show(showRequest(2, nil)))
	require.NoError(t, h.notifier.Show(showRequest(1, &tray{hwnd: 0x10, appID: 5})))

	entries := h.notifier.Outstanding()
	require.Len(t, entries, 2)
	assert.Equal(t, model.ID(1), entries[0].ID)
	assert.Equal(t, OwnerNative, entries[0].Owner.Kind)
	assert.Equal(t, model.ID(2), entries[1].ID)
	assert.Equal(t, OwnerFallback, entries[1].Owner.Kind)
}

func TestConcurrentShowClose(t *testing.T) {
	native := &fakeNative{}
	fb := &fakeFallback{}
	factory := &countingFactory{fb: fb}
	n := New(Config{
		Native:          native,
		FallbackFactory: factory.build,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range perWorker {
				id := model.ID(w*perWorker + i + 1)
				var target model.Target
				if i%2 == 0 {
					target = &tray{hwnd: uint64(0x100 + w), appID: uint32(w)}
				}
				assert.NoError(t, n.Show(showRequest(id, target)))
				owner := n.Owner(id)
				assert.NotEqual(t, OwnerUnknown, owner.Kind)
				n.Close(id)
				assert.Equal(t, OwnerUnknown, n.Owner(id).Kind)
			}
		}(w)
	}
	wg.Wait()

	assert.Empty(t, n.Outstanding())
	assert.Equal(t, 1, factory.built)
	assert.Len(t, fb.Shown(), workers*perWorker/2)
	assert.Len(t, native.Calls(), workers*perWorker) // show + close for each native id
}
