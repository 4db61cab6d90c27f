// Package main is the entry point for the traynoted notification daemon.
package main

import (
	"cmp"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	coreglib "github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/traynote/internal/config"
	"github.com/jmylchreest/traynote/internal/daemon"
	"github.com/jmylchreest/traynote/internal/dbus"
	"github.com/jmylchreest/traynote/internal/display"
	"github.com/jmylchreest/traynote/internal/model"
	"github.com/jmylchreest/traynote/internal/native"
	"github.com/jmylchreest/traynote/internal/notifier"
)

const (
	appID   = "io.github.jmylchreest.traynoted"
	appName = "traynoted"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/traynote/traynoted.toml)")
	forceFallback := flag.Bool("force-fallback", false, "Show every notification in the popup display instead of tray balloons")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	writeConfig := flag.Bool("write-config", false, "Write the default config file and exit")
	flag.Parse()

	if *showVersion {
		println("traynoted version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if *writeConfig {
		if err := config.WriteDefault(*configPath); err != nil {
			logger.Error("failed to write config", "error", err)
			os.Exit(1)
		}
		logger.Info("wrote default config", "path", cmp.Or(*configPath, config.Path()))
		os.Exit(0)
	}

	os.Exit(run(*configPath, *forceFallback, logger))
}

func run(configPath string, forceFallback bool, logger *slog.Logger) int {
	logger.Info("starting traynoted", "version", version)

	if configPath == "" {
		configPath = config.Path()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	if forceFallback {
		cfg.Backend.ForceFallback = true
	}

	// Create the libadwaita application
	app := adw.NewApplication(appID, 0)

	var (
		service       *dbus.Service
		factory       *display.Factory
		configWatcher *config.Watcher
		running       atomic.Bool
		trayEnabled   atomic.Bool
		trayWindow    atomic.Uint64
	)
	trayEnabled.Store(cfg.Tray.Enabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Native calls and popup work both run on the GTK main loop.
	dispatcher := notifier.NewDispatcher(func(work func()) {
		glib.IdleAdd(work)
	})

	balloon, balloonErr := startBalloon(ctx, cfg.Tray.AppName, logger)
	if balloonErr != nil {
		logger.Warn("tray balloons unavailable, using popups only", "error", balloonErr)
	}

	factory = display.NewFactory(&app.Application, cfg, logger)

	ncfg := notifier.Config{
		FallbackFactory: factory.Build,
		OnClosed: func(id model.ID, reason model.CloseReason) {
			if service != nil {
				service.NotifyClosed(id, reason)
			}
		},
		OnAction: func(id model.ID, actionKey string) {
			if service != nil {
				service.NotifyAction(id, actionKey)
			}
		},
		Dispatcher:    dispatcher,
		ForceFallback: cfg.Backend.ForceFallback,
		Logger:        logger,
	}
	if balloon != nil {
		ncfg.Native = balloon
	}
	n := notifier.New(ncfg)

	if balloon != nil {
		// A balloon the OS closed ends every id still shown on its tray.
		balloon.SetClosedCallback(func(handle notifier.NativeHandle, reason model.CloseReason) {
			for _, id := range n.ForgetNative(handle) {
				service.NotifyClosed(id, reason)
			}
		})
	}

	tray := native.NewTray(cfg.Tray.AppID, trayWindow.Load)

	service = dbus.NewService(n, logger)
	service.SetServerInfo(dbus.ServerInfo{
		Name:    appName,
		Vendor:  "traynote",
		Version: version,
	})
	target := func() model.Target {
		if balloon == nil || !trayEnabled.Load() {
			return nil
		}
		return tray
	}
	service.SetTarget(target)

	notices := daemon.NewNotices(n, logger)
	notices.SetTarget(target)

	shutdown := func() {
		if configWatcher != nil {
			_ = configWatcher.Stop()
		}
		if service != nil {
			_ = service.Stop()
		}
		factory.Stop()
	}

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()

		// Stop components in GTK main loop context
		glib.IdleAdd(func() {
			if running.Load() {
				shutdown()
				app.Quit()
			}
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		// The hidden window keeps the application alive and is the tray
		// window balloons are attached to.
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
		trayWindow.Store(uint64(coreglib.InternObject(keepAliveWindow).Native()))

		gdkDisplay := gdk.DisplayGetDefault()
		if gdkDisplay == nil {
			logger.Warn("no display available, popups disabled")
		}
		factory.SetDisplay(gdkDisplay)

		if err := service.Start(); err != nil {
			logger.Error("failed to start D-Bus service", "error", err)
			app.Quit()
			return
		}

		configWatcher, err = config.NewWatcher(configPath, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(newConfig *config.Config) {
				glib.IdleAdd(func() {
					n.SetForceFallback(newConfig.Backend.ForceFallback || forceFallback)
					trayEnabled.Store(newConfig.Tray.Enabled)
					factory.UpdateConfig(newConfig)
					notices.NotifyConfigReloaded()
				})
			})
			configWatcher.SetErrorCallback(func(err error) {
				logger.Warn("keeping previous configuration", "error", err)
				notices.NotifyConfigError(err)
			})
			if err := configWatcher.Start(cfg); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		if balloonErr != nil {
			notices.NotifyBalloonsUnavailable(balloonErr)
		}

		logger.Info("traynoted ready",
			"dbus_interface", dbus.Interface,
			"force_fallback", cfg.Backend.ForceFallback,
			"tray", cfg.Tray.Enabled,
			"native", balloon != nil,
		)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		if running.Load() {
			shutdown()
		}
		running.Store(false)
	})

	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("traynoted stopped")
	return 0
}
