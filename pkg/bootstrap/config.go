// Package bootstrap loads the process configuration read before the
// desktop app or any CLI command starts: .env, config file, environment
// and command-line flags, in increasing precedence.
package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/borgmon/dose-alarm/pkg/logger"
	"github.com/borgmon/dose-alarm/pkg/store"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName   = "dose-alarm"
	AppID     = "com.borgmon.dose-alarm"
	EnvPrefix = "DOSE_ALARM"

	KeyUser           = "user"
	KeyLogLevel       = "log.level"
	KeyLogDir         = "log.dir"
	KeyStorageBackend = "storage.backend"
	KeyStoragePath    = "storage.path"
	KeyPollInterval   = "poll.interval"
	KeyPollWindow     = "poll.window"
	KeyAppID          = "app.id"
	KeyAlarmSound     = "alarm.sound"
)

// Config is the resolved bootstrap configuration
type Config struct {
	User           string
	LogLevel       string
	LogDir         string
	StorageBackend string
	StoragePath    string
	PollInterval   time.Duration
	PollWindow     time.Duration
	AppID          string
	AlarmSound     string // optional WAV replacing the built-in tone

	// ConfigFile is the file that was read, empty when none was found
	ConfigFile string
}

// Options controls where Load looks
type Options struct {
	ConfigFile string         // explicit --config path
	EnvFile    string         // defaults to ".env"
	Flags      *pflag.FlagSet // bound by flag name, e.g. "user"
	ConfigDir  string         // search dir; defaults to the user config dir
}

// Load resolves the configuration. A missing .env or config file is not
// an error; an explicit ConfigFile that cannot be read is.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = defaultConfigDir()
	}

	v := viper.New()
	setDefaults(v, configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if opts.Flags != nil {
		for key, flag := range map[string]string{
			KeyUser:           "user",
			KeyLogLevel:       "log-level",
			KeyStorageBackend: "backend",
			KeyStoragePath:    "db",
		} {
			if f := opts.Flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	cfg := &Config{
		User:           strings.TrimSpace(v.GetString(KeyUser)),
		LogLevel:       strings.ToLower(v.GetString(KeyLogLevel)),
		LogDir:         v.GetString(KeyLogDir),
		StorageBackend: strings.ToLower(v.GetString(KeyStorageBackend)),
		StoragePath:    v.GetString(KeyStoragePath),
		PollInterval:   v.GetDuration(KeyPollInterval),
		PollWindow:     v.GetDuration(KeyPollWindow),
		AppID:          v.GetString(KeyAppID),
		AlarmSound:     v.GetString(KeyAlarmSound),
		ConfigFile:     v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault(KeyUser, defaultUser())
	v.SetDefault(KeyLogLevel, logger.InfoLevel)
	v.SetDefault(KeyLogDir, filepath.Join(configDir, "logs"))
	v.SetDefault(KeyStorageBackend, store.BackendSQLite)
	v.SetDefault(KeyStoragePath, filepath.Join(configDir, AppName+".db"))
	v.SetDefault(KeyPollInterval, time.Minute)
	v.SetDefault(KeyPollWindow, time.Minute)
	v.SetDefault(KeyAppID, AppID)
	v.SetDefault(KeyAlarmSound, "")
}

// Validate rejects values the app cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.User == "" {
		errs = append(errs, errors.New("user must not be empty"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyPollInterval, c.PollInterval))
	}
	if c.PollWindow <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyPollWindow, c.PollWindow))
	}
	switch c.StorageBackend {
	case store.BackendSQLite:
		if c.StoragePath == "" {
			errs = append(errs, fmt.Errorf("%s is required for the sqlite backend", KeyStoragePath))
		}
	case store.BackendPreferences:
	default:
		errs = append(errs, fmt.Errorf("unknown %s %q", KeyStorageBackend, c.StorageBackend))
	}
	return errors.Join(errs...)
}

func defaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return "."
}

func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// DOMAIN\name on Windows
		if i := strings.LastIndex(u.Username, `\`); i >= 0 {
			return u.Username[i+1:]
		}
		return u.Username
	}
	return "default"
}
