package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/khaled151277/xvkeyboard/pkg/charmap"
	"github.com/khaled151277/xvkeyboard/pkg/keysim"
	"github.com/khaled151277/xvkeyboard/pkg/keystate"
	"github.com/khaled151277/xvkeyboard/pkg/laststore"
	jsonstore "github.com/khaled151277/xvkeyboard/pkg/laststore/json"
	"github.com/khaled151277/xvkeyboard/pkg/laststore/memory"
	"github.com/khaled151277/xvkeyboard/pkg/laststore/sqlite"
	"github.com/khaled151277/xvkeyboard/pkg/layouts"
	"github.com/khaled151277/xvkeyboard/pkg/settings"
	"github.com/khaled151277/xvkeyboard/pkg/vkbd"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	err := run()
	if err != nil {
		log.Fatalf("error: %+v", err)
	}
}

func run() error {
	configPath := pflag.String("config", "", "path to settings.json (default: $XDG_CONFIG_HOME/xvkeyboard/settings.json)")
	debug := pflag.Bool("debug", false, "enable debug logging")
	pflag.Parse()

	logg, err := newLogger(*debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := *configPath
	if path == "" {
		path, err = settings.DefaultPath()
		if err != nil {
			return fmt.Errorf("locate settings: %w", err)
		}
	}
	cfg, err := settings.Load(path, logg)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	registry := charmap.NewRegistry(logg)
	if cfg.LayoutsDir != "" {
		if err := registry.LoadDir(cfg.LayoutsDir); err != nil {
			logg.Warnw("cannot load layout tables", "dir", cfg.LayoutsDir, "error", err)
		}
	}

	store, jsonStore, err := openStore(cfg, path, logg)
	if err != nil {
		return fmt.Errorf("open layout store: %w", err)
	}
	defer store.Close()

	sim := connectSimulator(logg)
	kbDriver := keysim.NewKeyboard(sim)

	machine := keystate.NewMachine(kbDriver, keystate.Config{
		RepeatEnabled:  cfg.AutoRepeatEnabled,
		RepeatDelay:    time.Duration(cfg.AutoRepeatDelayMs) * time.Millisecond,
		RepeatInterval: time.Duration(cfg.AutoRepeatIntervalMs) * time.Millisecond,
	}, logg)

	manager := layouts.NewManager(logg)
	kb := vkbd.NewKeyboard(cfg, manager, registry, machine, kbDriver, store, &logRenderer{log: logg}, nil, logg)

	logg.Info("started xvkeyboard")

	errChan := make(chan error, 3)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := kb.Run(ctx)
		if err != nil {
			errChan <- fmt.Errorf("run keyboard: %w", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := systemdNotifyLoop(ctx)
		if err != nil {
			errChan <- fmt.Errorf("systemd notify: %w", err)
		}
	}()

	if jsonStore != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := jsonStore.SaveLooper(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				errChan <- fmt.Errorf("save looper: %w", err)
			}
		}()
	}

	err = <-errChan
	switch {
	case errors.Is(err, context.Canceled):
		logg.Info("shutting down")
		wg.Wait()
		return nil
	case err != nil:
		return err
	}

	return nil
}

// openStore picks the persistence backend. The json store is also returned
// concretely so its flush loop can be started.
func openStore(cfg settings.Settings, settingsPath string, logg *zap.SugaredLogger) (laststore.Store, *jsonstore.Store, error) {
	dir := filepath.Dir(settingsPath)

	switch cfg.StoreBackend {
	case "sqlite":
		s, err := sqlite.NewStore(filepath.Join(dir, "state.db"), logg)
		return s, nil, err
	case "json":
		s, err := jsonstore.NewStore(filepath.Join(dir, "state.json"))
		return s, s, err
	case "memory":
		return memory.NewStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// connectSimulator returns nil when no X server is reachable; the rest of the
// application keeps working with key output disabled.
func connectSimulator(logg *zap.SugaredLogger) keysim.Simulator {
	sim, err := keysim.ConnectX11()
	if err != nil {
		logg.Warnw("cannot connect to X server, key simulation unavailable", "error", err)
		return nil
	}
	return sim
}

// logRenderer is the headless UI surface: label changes and warnings go to
// the log. A graphical frontend plugs in by implementing vkbd.Renderer.
type logRenderer struct {
	log *zap.SugaredLogger
}

func (r *logRenderer) RefreshLabels(code string, shift, caps bool) {
	r.log.Debugw("labels refreshed", "layout", code, "shift", shift, "caps", caps)
}

func (r *logRenderer) SelectLayout(i int, name string) {
	r.log.Infow("active layout", "index", i, "layout", name)
}

func (r *logRenderer) Warn(title, msg string) {
	r.log.Warnw("user warning", "title", title, "message", msg)
}

func (r *logRenderer) Show() {}

func systemdNotifyLoop(ctx context.Context) error {
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		return fmt.Errorf("notify systemd: %w", err)
	}
	if !supported {
		return nil
	}

	_, _ = daemon.SdNotify(false, "STATUS=Keeping the on-screen keyboard in sync")

	t, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		return fmt.Errorf("check watchdog: %w", err)
	}
	// no watchdog, nothing more to do
	if t == 0 {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-time.After(t / 2):
			_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			if err != nil {
				return fmt.Errorf("notify watchdog: %w", err)
			}
		}
	}
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	loggerConfig := zap.NewDevelopmentConfig()
	if !debug {
		loggerConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	loggerConfig.OutputPaths = []string{"stdout"}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return logger.Sugar(), nil
}
