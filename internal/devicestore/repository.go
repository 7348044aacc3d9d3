package devicestore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/logger"
	_ "github.com/mattn/go-sqlite3"
)

type repository struct {
	db     *sql.DB
	logger logger.Logger
	cfg    Config
	mu     sync.Mutex
}

func newRepository(cfg Config, log logger.Logger) (*repository, error) {
	errFactory := errors.New()

	if cfg.DBPath == "" {
		return nil, errFactory.New(ErrInvalidDBPath)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}
	db.SetMaxOpenConns(1)

	if err := ValidateAndUpdateSchema(db, cfg.DBPath, log); err != nil {
		db.Close()
		return nil, errFactory.Wrap(ErrStorageInit, err)
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("Device store initialized")

	return &repository{
		db:     db,
		logger: log,
		cfg:    cfg,
	}, nil
}

func (r *repository) Remember(ctx context.Context, dev Device) error {
	errFactory := errors.New()

	if dev.Port == "" {
		return errFactory.WithMessage(ErrInvalidDevice, "device has no port name")
	}
	if dev.ConnectedAt.IsZero() {
		dev.ConnectedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, upsertDeviceSQL,
		dev.Port, dev.SerialNumber, dev.VID, dev.PID, dev.ConnectedAt.Unix(),
	); err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	r.logger.Debug().
		Str("port", dev.Port).
		Str("serial_number", dev.SerialNumber).
		Msg("Remembered device")

	return nil
}

func (r *repository) Recent(ctx context.Context) ([]Device, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.QueryContext(ctx, selectRecentSQL, r.cfg.RecentLimit)
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var (
			dev         Device
			connectedAt int64
		)
		if err := rows.Scan(&dev.Port, &dev.SerialNumber, &dev.VID, &dev.PID, &connectedAt); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		dev.ConnectedAt = time.Unix(connectedAt, 0)
		devices = append(devices, dev)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return devices, nil
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "checkpoint_wal",
			Error: err.Error(),
		})
	}

	if err := r.db.Close(); err != nil {
		return errors.New().WithData(ErrStorageClose, struct {
			Phase string
			Error string
		}{
			Phase: "close_database",
			Error: err.Error(),
		})
	}

	r.logger.Debug().Msg("Device store closed")

	return nil
}
