package history

import "github.com/sysboard/sysboard/internal/errors"

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/sysboard/history.db"

	// defaultRetention caps how many rows Recent may return and how many
	// the pruner keeps around.
	defaultRetention = 1000
)

type Config struct {
	Enabled   bool
	DBPath    string
	Retention int
}

func DefaultConfig() Config {
	return Config{
		Enabled:   false,
		DBPath:    defaultDBPath,
		Retention: defaultRetention,
	}
}

func (c Config) Validate() error {
	if c.Enabled && c.DBPath == "" {
		return errors.New(ErrInvalidDBPath)
	}
	return nil
}
