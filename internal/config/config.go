// Package config loads GranjaPro settings. GRANJA_* environment variables
// override granja.yaml, which overrides the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/granjapro/granja/internal/vault"
)

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

type Config struct {
	Store     StoreConfig
	Security  SecurityConfig
	Daemon    DaemonConfig
	Analytics AnalyticsConfig
	Report    ReportConfig
	Log       LogConfig
}

type StoreConfig struct {
	Backend    string
	DataDir    string
	SQLitePath string
	// Addr and TLS apply to the remote backend.
	Addr string
	TLS  bool
}

type SecurityConfig struct {
	// Pepper salts every password digest. Changing it invalidates stored passwords.
	Pepper string
}

type DaemonConfig struct {
	Port     int
	HTTPPort int
	TLS      bool
}

type AnalyticsConfig struct {
	LayingRateThreshold float64
	FeedPerBirdKg       float64
	EggWeightKg         float64
}

type ReportConfig struct {
	// Dir receives exported workbooks.
	Dir string
}

type LogConfig struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:    BackendJSON,
			DataDir:    "./data",
			SQLitePath: "./data/granja.db",
			Addr:       "localhost:7001",
			TLS:        true,
		},
		Security: SecurityConfig{Pepper: vault.DefaultPepper},
		Daemon:   DaemonConfig{Port: 7001, HTTPPort: 7002, TLS: true},
		Analytics: AnalyticsConfig{
			LayingRateThreshold: 70,
			FeedPerBirdKg:       0.115,
			EggWeightKg:         0.060,
		},
		Report: ReportConfig{Dir: "exports"},
		Log: LogConfig{
			Path:       "logs/granja.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Load reads configuration. An explicit path must exist; otherwise granja.yaml
// is looked up in the working directory and $HOME/.granja, and a missing file
// just means defaults plus environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("granja")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".granja"))
		}
	}

	v.SetEnvPrefix("GRANJA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	return Config{
		Store: StoreConfig{
			Backend:    strings.ToLower(strings.TrimSpace(v.GetString("store.backend"))),
			DataDir:    v.GetString("store.data_dir"),
			SQLitePath: v.GetString("store.sqlite_path"),
			Addr:       v.GetString("store.addr"),
			TLS:        v.GetBool("store.tls"),
		},
		Security: SecurityConfig{Pepper: v.GetString("security.pepper")},
		Daemon: DaemonConfig{
			Port:     v.GetInt("daemon.port"),
			HTTPPort: v.GetInt("daemon.http_port"),
			TLS:      v.GetBool("daemon.tls"),
		},
		Analytics: AnalyticsConfig{
			LayingRateThreshold: v.GetFloat64("analytics.laying_rate_threshold"),
			FeedPerBirdKg:       v.GetFloat64("analytics.feed_per_bird_kg"),
			EggWeightKg:         v.GetFloat64("analytics.egg_weight_kg"),
		},
		Report: ReportConfig{Dir: v.GetString("report.dir")},
		Log: LogConfig{
			Path:       v.GetString("log.path"),
			Level:      v.GetString("log.level"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
			Compress:   v.GetBool("log.compress"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.data_dir", d.Store.DataDir)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)
	v.SetDefault("store.addr", d.Store.Addr)
	v.SetDefault("store.tls", d.Store.TLS)

	v.SetDefault("security.pepper", d.Security.Pepper)

	v.SetDefault("daemon.port", d.Daemon.Port)
	v.SetDefault("daemon.http_port", d.Daemon.HTTPPort)
	v.SetDefault("daemon.tls", d.Daemon.TLS)

	v.SetDefault("analytics.laying_rate_threshold", d.Analytics.LayingRateThreshold)
	v.SetDefault("analytics.feed_per_bird_kg", d.Analytics.FeedPerBirdKg)
	v.SetDefault("analytics.egg_weight_kg", d.Analytics.EggWeightKg)

	v.SetDefault("report.dir", d.Report.Dir)

	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []string
	switch c.Store.Backend {
	case BackendJSON:
		if c.Store.DataDir == "" {
			errs = append(errs, "store.data_dir must not be empty")
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, "store.sqlite_path must not be empty")
		}
	case BackendRemote:
		if c.Store.Addr == "" {
			errs = append(errs, "store.addr must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.backend %q is not one of json, sqlite, remote", c.Store.Backend))
	}
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		errs = append(errs, fmt.Sprintf("daemon.port %d is out of range", c.Daemon.Port))
	}
	if c.Daemon.HTTPPort < 0 || c.Daemon.HTTPPort > 65535 {
		errs = append(errs, fmt.Sprintf("daemon.http_port %d is out of range", c.Daemon.HTTPPort))
	}
	if c.Analytics.LayingRateThreshold <= 0 || c.Analytics.LayingRateThreshold > 100 {
		errs = append(errs, "analytics.laying_rate_threshold must be in (0, 100]")
	}
	if c.Analytics.FeedPerBirdKg <= 0 {
		errs = append(errs, "analytics.feed_per_bird_kg must be positive")
	}
	if c.Analytics.EggWeightKg <= 0 {
		errs = append(errs, "analytics.egg_weight_kg must be positive")
	}
	if c.Report.Dir == "" {
		errs = append(errs, "report.dir must not be empty")
	}
	if c.Log.Path == "" {
		errs = append(errs, "log.path must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
