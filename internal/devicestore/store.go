// Package devicestore persists the last known good serial devices in a
// small sqlite database.
package devicestore

import (
	"context"

	"codeberg.org/mutker/serialstat/internal/errors"
	"codeberg.org/mutker/serialstat/internal/logger"
)

// No-op implementation
type noopStore struct{}

// New opens the store described by cfg. A disabled store remembers
// nothing.
func New(cfg Config, log logger.Logger) (Store, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled() {
		log.Debug().Msg("Device store disabled, using no-op store")
		return noopStore{}, nil
	}

	repo, err := newRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create device repository")
		return nil, err
	}

	return repo, nil
}

func (noopStore) Remember(_ context.Context, _ Device) error {
	return nil
}

func (noopStore) Recent(_ context.Context) ([]Device, error) {
	return nil, nil
}

func (noopStore) Close() error {
	return nil
}
