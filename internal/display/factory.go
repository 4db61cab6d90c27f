package display

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/traynote/internal/config"
	"github.com/jmylchreest/traynote/internal/notifier"
)

// Factory builds the popup manager on demand and keeps it up to date with
// configuration reloads.
type Factory struct {
	app    *gtk.Application
	logger *slog.Logger

	mu      sync.Mutex
	cfg     *config.Config
	display *gdk.Display
	manager *Manager
}

// NewFactory creates a factory for popups owned by app.
func NewFactory(app *gtk.Application, cfg *config.Config, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{app: app, cfg: cfg, logger: logger}
}

// SetDisplay records the display popups are shown on. It must be called on
// the GTK main loop; Build only reads the recorded value.
func (f *Factory) SetDisplay(display *gdk.Display) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.display = display
}

// Build starts a popup manager reporting to onClosed and onAction.
// It has the signature of notifier.FallbackFactory and may be called from
// any goroutine.
func (f *Factory) Build(onClosed notifier.ClosedFunc, onAction notifier.ActionFunc) (notifier.FallbackBackend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.manager != nil {
		return f.manager, nil
	}
	if f.display == nil {
		return nil, &DisplayError{Message: "no display available"}
	}

	m := NewManager(f.app, f.cfg, f.logger)
	m.SetCloseCallback(onClosed)
	m.SetActionCallback(onAction)
	if err := m.Start(f.display); err != nil {
		return nil, err
	}

	f.manager = m
	return m, nil
}

// UpdateConfig records cfg for future builds and forwards it to a running manager.
func (f *Factory) UpdateConfig(cfg *config.Config) {
	f.mu.Lock()
	f.cfg = cfg
	m := f.manager
	f.mu.Unlock()

	if m != nil {
		m.UpdateConfig(cfg)
	}
}

// Stop stops the manager if one was built.
func (f *Factory) Stop() {
	f.mu.Lock()
	m := f.manager
	f.manager = nil
	f.mu.Unlock()

	if m != nil {
		m.Stop()
	}
}
