//go:build !linux

package native

import (
	"context"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/jmylchreest/traynote/internal/notifier"
)

// Balloon sends balloons through beeep. beeep cannot replace or dismiss a
// notification once shown.
type Balloon struct {
	notify func(title, message string, icon any) error
	logger *slog.Logger
}

// NewBalloon creates a balloon backend. appName is used as the notification
// source where the platform shows one.
func NewBalloon(appName string, logger *slog.Logger) *Balloon {
	if logger == nil {
		logger = slog.Default()
	}
	if appName != "" {
		beeep.AppName = appName
	}
	return &Balloon{notify: beeep.Notify, logger: logger}
}

// Notify shows a balloon. Dismiss requests are logged and ignored.
func (b *Balloon) Notify(handle notifier.NativeHandle, summary, body string, expireTimeout int32, icon string) error {
	if summary == "" && body == "" && expireTimeout == 0 {
		b.logger.Debug("balloon dismiss not supported on this platform", "app_id", handle.AppID)
		return nil
	}
	return b.notify(summary, body, icon)
}

// SetClosedCallback is accepted for parity with other platforms. beeep does
// not report closures, so cb is never called.
func (b *Balloon) SetClosedCallback(cb ClosedFunc) {}

// Listen has nothing to watch on this platform and returns when ctx is done.
func (b *Balloon) Listen(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
