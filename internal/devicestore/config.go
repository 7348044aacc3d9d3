package devicestore

import "codeberg.org/mutker/serialstat/internal/errors"

const (
	defaultDirPerm = 0o755
	backupDirName  = "backups"
)

type Config struct {
	// DBPath is the sqlite database file. Empty disables the store.
	DBPath string
	// RecentLimit bounds how many remembered devices Recent returns
	RecentLimit int
}

func DefaultConfig() Config {
	return Config{
		RecentLimit: 8,
	}
}

func (c Config) Enabled() bool {
	return c.DBPath != ""
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.RecentLimit < 1 {
		return errFactory.WithMessage(ErrInvalidConfig, "recent limit must be at least 1")
	}
	return nil
}
