package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the environment variables read by LoadConfig,
// e.g. ROWKIT_PGHOST, ROWKIT_PGPORT, ROWKIT_PGDBNAME.
const EnvPrefix = "ROWKIT_PG"

// ConfigFileName is the optional config file read by LoadConfig.
const ConfigFileName = "rowkit.yaml"

// Config describes how to reach the database and size the pool.
type Config struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	DBName   string `koanf:"dbname"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	PoolSize int    `koanf:"poolsize"`
}

// ApplyDefaults fills unset fields with the standard local-postgres values.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.DBName == "" {
		c.DBName = "postgres"
	}
	if c.User == "" {
		c.User = "postgres"
	}
	if c.PoolSize == 0 {
		c.PoolSize = 10
	}
}

// LoadConfig builds a Config from the optional YAML file at path, then
// ROWKIT_PG* environment variables (which take precedence), then defaults.
// An empty path loads ConfigFileName from the working directory if present;
// a missing file is not an error.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = ConfigFileName
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Transform: ROWKIT_PGHOST -> host
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// DSN renders the key=value connection string, including the fixed
// keepalive parameters that bound how long a dead connection can stall an
// operation.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s"+
			" connect_timeout=300 keepalives=1 keepalives_idle=60 keepalives_interval=10 keepalives_count=5",
		c.Host, c.Port, c.DBName, c.User, c.Password,
	)
}

// Redacted renders the config for logs with the password masked.
func (c Config) Redacted() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s",
		c.Host, c.Port, c.DBName, c.User, strings.Repeat("*", len(c.Password)))
}
