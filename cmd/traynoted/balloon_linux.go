//go:build linux

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/traynote/internal/native"
)

// startBalloon connects the balloon backend to the session notification
// service and tracks balloons the service closes on its own.
func startBalloon(ctx context.Context, appName string, logger *slog.Logger) (*native.Balloon, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	balloon := native.NewBalloon(conn, appName, logger)
	go func() {
		if err := balloon.Listen(ctx, conn); err != nil {
			logger.Warn("balloon listener stopped", "error", err)
		}
	}()
	return balloon, nil
}
