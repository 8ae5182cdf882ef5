package config

import (
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sysboard/sysboard/internal/errors"
	"github.com/sysboard/sysboard/internal/logger"
)

const (
	DefaultListen    = "127.0.0.1:8550"
	DefaultLogLevel  = "info"
	DefaultTopN      = 5
	DefaultMaxCores  = 32
	DefaultQueueSize = 100

	defaultHeartbeatSecs = 15
	defaultGraceSecs     = 2
	defaultHistoryDB     = "/var/lib/sysboard/history.db"
)

// Config holds the daemon configuration, loaded from flags, an optional
// toml file and SYSBOARD_-prefixed environment variables. Flags win.
type Config struct {
	Listen    string `mapstructure:"listen"`
	LogLevel  string `mapstructure:"log_level"`
	TopN      int    `mapstructure:"top_processes"`
	MaxCores  int    `mapstructure:"max_cores"`
	QueueSize int    `mapstructure:"queue_size"`
	Heartbeat int    `mapstructure:"heartbeat"`
	Grace     int    `mapstructure:"grace"`
	History   bool   `mapstructure:"history"`
	HistoryDB string `mapstructure:"history_db"`

	// Initial refresh interval per category, in seconds. Missing categories
	// fall back to the scheduler defaults; values are clamped there.
	Intervals map[string]int `mapstructure:"intervals"`
}

func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen", DefaultListen)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("top_processes", DefaultTopN)
	v.SetDefault("max_cores", DefaultMaxCores)
	v.SetDefault("queue_size", DefaultQueueSize)
	v.SetDefault("heartbeat", defaultHeartbeatSecs)
	v.SetDefault("grace", defaultGraceSecs)
	v.SetDefault("history", false)
	v.SetDefault("history_db", defaultHistoryDB)

	fs := pflag.NewFlagSet("sysboard", pflag.ContinueOnError)
	fs.String("listen", DefaultListen, "address to serve the dashboard on")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warning, error)")
	fs.Int("top-processes", DefaultTopN, "number of processes in the top lists")
	fs.Bool("history", false, "record utilization history to sqlite")
	fs.String("history-db", defaultHistoryDB, "path to the history database")
	configFlag := fs.String("config", "", "path to config file")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}

	if err := v.BindPFlag("listen", fs.Lookup("listen")); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}
	if err := v.BindPFlag("log_level", fs.Lookup("log-level")); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}
	if err := v.BindPFlag("top_processes", fs.Lookup("top-processes")); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}
	if err := v.BindPFlag("history", fs.Lookup("history")); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}
	if err := v.BindPFlag("history_db", fs.Lookup("history-db")); err != nil {
		return nil, errors.Wrap(errors.ErrBindFlags, err)
	}

	configPath := *configFlag
	if configPath == "" {
		configPath = os.Getenv("SYSBOARD_CONFIG")
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WithMessage(errors.ErrReadConfig, "Failed to read config file: "+err.Error())
		}
	} else {
		v.SetConfigName("sysboard")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, errors.Wrap(errors.ErrReadConfig, err)
			}
		}
	}

	v.SetEnvPrefix("SYSBOARD")
	v.AutomaticEnv()

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if !logger.IsValidLevel(c.LogLevel) {
		return errors.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Listen == "" {
		return errors.WithMessage(errors.ErrInvalidConfig, "listen address must not be empty")
	}
	if c.TopN <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "top_processes must be positive")
	}
	if c.QueueSize <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "queue_size must be positive")
	}
	if c.Heartbeat <= 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "heartbeat must be positive")
	}
	if c.Grace < 0 {
		return errors.WithMessage(errors.ErrInvalidConfig, "grace must not be negative")
	}
	for category, secs := range c.Intervals {
		if secs <= 0 {
			return errors.WithData(errors.ErrInvalidInterval, category)
		}
	}
	if c.History && c.HistoryDB == "" {
		return errors.WithMessage(errors.ErrInvalidConfig, "history_db required when history is enabled")
	}

	return nil
}
