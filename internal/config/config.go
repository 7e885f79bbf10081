package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/btapmd/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile   = "/etc/btapmd.conf"
	DefaultEnvPrefix    = "BTAPMD"
	DefaultSettingsDB   = "/var/lib/btapmd/settings.db"
	DefaultRadioState   = "/run/btapmd/radio.yaml"
	DefaultListen       = "127.0.0.1:9133"
	DefaultPIDDir       = "/run/btapmd"
	DefaultTelemetryDB  = "/var/lib/btapmd/telemetry.db"
	DefaultBackupDir    = "/var/lib/btapmd/backups"
	DefaultBatchSize    = 8
	DefaultBatchTimeout = 30 * time.Second
	DefaultNotifyQueue  = 16
	DefaultEventQueue   = 32
)

type Config struct {
	Debug   bool `mapstructure:"debug"`
	Verbose bool `mapstructure:"verbose"`

	User       int    `mapstructure:"user"`
	SettingsDB string `mapstructure:"settings_db"`
	Ephemeral  bool   `mapstructure:"ephemeral"`
	RadioState string `mapstructure:"radio_state"`
	Listen     string `mapstructure:"listen"`
	PIDDir     string `mapstructure:"pid_dir"`

	Telemetry             bool          `mapstructure:"telemetry"`
	TelemetryDB           string        `mapstructure:"telemetry_db"`
	TelemetryBackupDir    string        `mapstructure:"telemetry_backup_dir"`
	TelemetryBatchSize    int           `mapstructure:"telemetry_batch_size"`
	TelemetryBatchTimeout time.Duration `mapstructure:"telemetry_batch_timeout"`

	NotifyCommand string `mapstructure:"notify_command"`
	NotifyQueue   int    `mapstructure:"notify_queue"`
	EventQueue    int    `mapstructure:"event_queue"`

	// ConfigFile is the file the values were read from, empty if none.
	ConfigFile string `mapstructure:"-"`
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("btapmd", pflag.ContinueOnError)

	fs.String("config", "", "Path to the TOML configuration file (default "+DefaultConfigFile+")")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.Int("user", 0, "Id of the active user")
	fs.String("settings-db", DefaultSettingsDB, "Path to the settings database")
	fs.Bool("ephemeral", false, "Keep settings in memory only")
	fs.String("radio-state", DefaultRadioState, "Path to the radio state file to watch")
	fs.String("listen", DefaultListen, "Address of the control API, empty to disable")
	fs.String("pid-dir", DefaultPIDDir, "Directory of the PID file")
	fs.Bool("telemetry", true, "Record airplane sessions")
	fs.String("telemetry-db", DefaultTelemetryDB, "Path to the telemetry database")
	fs.String("telemetry-backup-dir", DefaultBackupDir, "Directory for telemetry backups taken before schema changes")
	fs.Int("telemetry-batch-size", DefaultBatchSize, "Session reports buffered before a write")
	fs.Duration("telemetry-batch-timeout", DefaultBatchTimeout, "Maximum time a session report stays buffered")
	fs.String("notify-command", "", "Command run to show a notification, empty to log only")
	fs.Int("notify-queue", DefaultNotifyQueue, "Pending notifications kept before dropping")
	fs.Int("event-queue", DefaultEventQueue, "Pending airplane events kept before rejecting")

	return fs
}

// Load reads flags from args, then the environment and the config file.
// Flags given on the command line win over the environment, which wins over
// the file.
func Load(args []string, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(ErrInvalidConfig, err)
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(ErrParseFlags, err)
	}

	v := viper.New()
	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, errFactory.Wrap(ErrBindFlags, bindErr)
	}

	path := v.GetString("config")
	if path == "" {
		path = o.configPath
	}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		if explicit || !isNotExist(err) {
			return nil, errFactory.WithData(ErrReadConfig, struct {
				Path  string
				Error string
			}{
				Path:  path,
				Error: err.Error(),
			})
		}
		path = ""
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(ErrReadConfig, err)
	}
	cfg.ConfigFile = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate checks values that cannot be used as given.
func (c *Config) Validate() error {
	errFactory := errors.New()

	switch {
	case c.User < 0:
		return errFactory.WithData(ErrInvalidUser, c.User)
	case !c.Ephemeral && c.SettingsDB == "":
		return errFactory.WithMessage(ErrInvalidPath, "settings_db is empty")
	case c.RadioState == "":
		return errFactory.WithMessage(ErrInvalidPath, "radio_state is empty")
	case c.PIDDir == "":
		return errFactory.WithMessage(ErrInvalidPath, "pid_dir is empty")
	case c.Telemetry && c.TelemetryDB == "":
		return errFactory.WithMessage(ErrInvalidPath, "telemetry_db is empty")
	case c.Telemetry && c.TelemetryBatchSize < 1:
		return errFactory.WithData(ErrInvalidValue, struct {
			Field string
			Value int
		}{"telemetry_batch_size", c.TelemetryBatchSize})
	case c.NotifyQueue < 1:
		return errFactory.WithData(ErrInvalidValue, struct {
			Field string
			Value int
		}{"notify_queue", c.NotifyQueue})
	case c.EventQueue < 1:
		return errFactory.WithData(ErrInvalidValue, struct {
			Field string
			Value int
		}{"event_queue", c.EventQueue})
	}

	return nil
}
