package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/calvinalkan/missions/internal/blob"
	"github.com/calvinalkan/missions/internal/config"
	"github.com/calvinalkan/missions/internal/hierarchy"
	"github.com/calvinalkan/missions/internal/logging"
	"github.com/calvinalkan/missions/internal/schedule"
)

// app carries the state shared by every command of one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	env    map[string]string

	cfg   config.Config
	log   *zap.Logger
	blobs blob.Store
	store *hierarchy.Store
}

// open builds the logger, connects the backend and loads the tree.
func (a *app) open(ctx context.Context) error {
	log, err := logging.New(a.errOut, a.cfg.LogLevel)
	if err != nil {
		return err
	}

	a.log = log

	blobs, err := blob.Open(ctx, a.cfg.BlobConfig(a.env))
	if err != nil {
		return fmt.Errorf("open %s backend: %w", a.cfg.Backend, err)
	}

	store, err := hierarchy.Open(ctx, hierarchy.Options{
		Blobs:    blobs,
		Key:      a.cfg.Key,
		Location: a.cfg.Location,
		Logger:   log.Named("store"),
	})
	if err != nil {
		_ = blobs.Close()

		return err
	}

	a.blobs = blobs
	a.store = store

	a.log.Debug("opened",
		zap.String("backend", a.cfg.Backend),
		zap.String("key", a.cfg.Key),
		zap.String("timezone", a.cfg.Location.String()),
	)

	return nil
}

func (a *app) close() {
	if a.blobs != nil {
		err := a.blobs.Close()
		if err != nil {
			a.log.Warn("close backend", zap.Error(err))
		}
	}

	if a.log != nil {
		_ = a.log.Sync()
	}
}

// scheduler returns a reset scheduler over the store. onPass may be nil.
func (a *app) scheduler(onPass func(int, time.Time)) *schedule.Scheduler {
	return schedule.New(a.store, schedule.Options{
		Location: a.cfg.Location,
		Logger:   a.log.Named("schedule"),
		OnPass:   onPass,
	})
}

// saved turns a persistence failure into a warning. The mutation is kept in
// memory, so the command still reports its result.
func (a *app) saved(o *IO, err error) error {
	if errors.Is(err, hierarchy.ErrPersistence) {
		o.Warn(err.Error(), "change not saved; check "+a.saveTarget())

		return nil
	}

	return err
}

func (a *app) saveTarget() string {
	switch a.cfg.Backend {
	case blob.BackendFile, blob.BackendSQLite:
		return "that " + a.cfg.DataDirAbs + " is writable"
	default:
		return "that the " + a.cfg.Backend + " backend is reachable"
	}
}

func (a *app) historyFile() string {
	if home := a.env["HOME"]; home != "" {
		return filepath.Join(home, ".ms_history")
	}

	return ""
}
