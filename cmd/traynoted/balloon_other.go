//go:build !linux

package main

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/traynote/internal/native"
)

func startBalloon(ctx context.Context, appName string, logger *slog.Logger) (*native.Balloon, error) {
	balloon := native.NewBalloon(appName, logger)
	go func() {
		_ = balloon.Listen(ctx)
	}()
	return balloon, nil
}
