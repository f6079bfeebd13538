package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Wait        WaitConfig        `mapstructure:"wait"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Development DevelopmentConfig `mapstructure:"development"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// WaitConfig bounds turn waits. Timeout applies to every wait-for-my-move request.
type WaitConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Buffer  int           `mapstructure:"buffer"`
}

type StorageConfig struct {
	// JournalPath is the SQLite file games are journaled to. Empty disables the journal.
	JournalPath string `mapstructure:"journal_path"`
}

type AuthConfig struct {
	// SigningKeyFile holds a PEM P-256 key. Empty generates a key per process.
	SigningKeyFile string `mapstructure:"signing_key_file"`
	Issuer         string `mapstructure:"issuer"`
}

type DevelopmentConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

func Load() (*Config, error) {
	return load(viper.New(), ".", "./config")
}

func load(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Enable environment variables
	v.SetEnvPrefix("POLLCHESS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Wait.Timeout <= 0 {
		return nil, fmt.Errorf("wait.timeout must be positive, got %s", cfg.Wait.Timeout)
	}
	if cfg.Wait.Buffer <= 0 {
		return nil, fmt.Errorf("wait.buffer must be positive, got %d", cfg.Wait.Buffer)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("wait.timeout", 60*time.Minute)
	v.SetDefault("wait.buffer", 64)
	v.SetDefault("storage.journal_path", "")
	v.SetDefault("auth.signing_key_file", "")
	v.SetDefault("auth.issuer", "pollchess")
	v.SetDefault("development.debug", false)
	v.SetDefault("development.log_level", "info")
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
