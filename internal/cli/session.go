package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tessro/jukebox/internal/catalog"
	"github.com/tessro/jukebox/internal/core"
	"github.com/tessro/jukebox/internal/device/mpv"
	"github.com/tessro/jukebox/internal/engine"
	jerrors "github.com/tessro/jukebox/internal/errors"
	"github.com/tessro/jukebox/internal/logging"
	"github.com/tessro/jukebox/internal/playback"
	"github.com/tessro/jukebox/internal/prefs"
)

// startDevice opens the playback device. Tests replace it.
var startDevice = func(ctx context.Context, logger *slog.Logger) (core.Device, error) {
	return mpv.Start(ctx,
		mpv.WithBinary(cfg.Playback.MPVPath),
		mpv.WithLogger(logger.With(slog.String("component", "mpv"))),
		mpv.WithProgressInterval(cfg.Playback.TickInterval()))
}

// newLogger builds the command logger. A nil out logs to the configured
// file only.
func newLogger(out io.Writer) (*slog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Output: out,
	})
}

// loadLibrary fetches and parses the configured catalog.
func loadLibrary(ctx context.Context, logger *slog.Logger) (*catalog.Library, error) {
	if !cfg.Catalog.Ready() {
		return nil, jerrors.WithSuggestion(
			fmt.Errorf("%w: catalog.count_url and catalog.data_url are not set", jerrors.ErrCatalogUnavailable),
			"Run 'jukebox config set catalog.count_url <url>' and 'jukebox config set catalog.data_url <url>'")
	}

	src, err := catalog.NewSource(cfg.Catalog.CountURL, cfg.Catalog.DataURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jerrors.ErrCatalogUnavailable, err)
	}
	if h, ok := src.(*catalog.HTTPSource); ok {
		h.SetLogFunc(logging.Printf(logger))
	}

	lib, err := catalog.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded",
		slog.Int("tracks", lib.Len()),
		slog.Int("declared", lib.Declared),
		slog.Int("skipped", lib.Skipped))
	return lib, nil
}

func openPrefs() (prefs.Store, error) {
	return prefs.Open(cfg.Prefs.Backend, cfg.Prefs.Path)
}

func currentVariant() (prefs.Variant, error) {
	return prefs.ParseVariant(cfg.Playback.Mode)
}

type sessionOptions struct {
	variant   prefs.Variant
	logOutput io.Writer
	listeners []playback.Listener
	// interacted counts launching the command as the first user gesture.
	interacted bool
}

// session is a running engine with its device and preference store.
type session struct {
	logger *slog.Logger
	engine *engine.Engine
	device core.Device
	store  prefs.Store
	logs   io.Closer
	cancel context.CancelFunc
	done   chan error
}

// startSession loads the catalog, opens preferences and the device, starts
// the engine loop and loads the first track.
func startSession(ctx context.Context, opts sessionOptions) (*session, error) {
	logger, logs, err := newLogger(opts.logOutput)
	if err != nil {
		return nil, err
	}
	s := &session{logger: logger, logs: logs}

	lib, err := loadLibrary(ctx, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.store, err = openPrefs()
	if err != nil {
		logger.Warn("preferences unavailable, using memory", slog.String("error", err.Error()))
		s.store = prefs.NewMemoryStore()
	}

	s.device, err = startDevice(ctx, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.engine, err = engine.New(lib, s.device, s.store,
		engine.WithLogger(logger.With(slog.String("component", "engine"))),
		engine.WithVariant(opts.variant),
		engine.WithResolver(catalog.NewAssetResolver(cfg.Catalog.AssetURL)),
		engine.WithRecoveryDelay(cfg.Playback.RecoveryDelay()))
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	for _, l := range opts.listeners {
		s.engine.Subscribe(l)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() {
		s.done <- s.engine.Run(runCtx)
	}()

	interacted := opts.interacted
	s.engine.Do(func(e *engine.Engine) {
		if interacted {
			e.Controller().NoteInteraction()
		}
		e.Start()
	})
	return s, nil
}

// Close stops the loop and releases the device and store.
func (s *session) Close() error {
	var errs []error
	if s.cancel != nil {
		s.cancel()
		if err := <-s.done; err != nil {
			errs = append(errs, err)
		}
	}
	if s.device != nil {
		if err := s.device.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close device: %w", err))
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close preferences: %w", err))
		}
	}
	if s.logs != nil {
		_ = s.logs.Close()
	}
	return errors.Join(errs...)
}
