package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`

	API struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"api"`

	Ingest struct {
		// Reporter is the process tag whose messages get classified.
		Reporter string `mapstructure:"reporter"`
	} `mapstructure:"ingest"`

	Watcher struct {
		Enabled bool     `mapstructure:"enabled"`
		Paths   []string `mapstructure:"paths"`
	} `mapstructure:"watcher"`

	Keys struct {
		// AuthorizedKeys lists files to index for fingerprint annotation.
		AuthorizedKeys []string `mapstructure:"authorized_keys"`
	} `mapstructure:"keys"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("api.listen", "127.0.0.1:8080")
	v.SetDefault("ingest.reporter", "sshd")
	v.SetDefault("watcher.enabled", false)
	v.SetDefault("watcher.paths", []string{"/var/log/auth.log"})

	// Env overrides
	v.SetEnvPrefix("SSHSIFT")
	v.AutomaticEnv()
	_ = v.BindEnv("db.dsn", "SSHSIFT_DB_DSN")
	_ = v.BindEnv("api.listen", "SSHSIFT_API_LISTEN")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// RequireDB validates the parts of the config that only database-backed
// commands need. The classify path runs without a DSN.
func (c *Config) RequireDB() error {
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required (set SSHSIFT_DB_DSN or config file)")
	}
	return nil
}
