package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. TRADEBOARD_RPC_BASE_URL.
const EnvPrefix = "TRADEBOARD"

// Config holds application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	RPC       RPCConfig       `mapstructure:"rpc"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// LogConfig feeds pkg/logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RPCConfig holds the backend connection settings.
type RPCConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	SessionID string        `mapstructure:"session_id"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// DashboardConfig holds widget settings.
type DashboardConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Manifest        string        `mapstructure:"manifest"`
}

// HTTPConfig holds the listener settings of the demo server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment. path may be empty; TRADEBOARD_CONFIG is consulted then. A
// missing file is only an error when a path was given explicitly.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("rpc.base_url", "http://localhost:8069")
	v.SetDefault("rpc.api_key", "")
	v.SetDefault("rpc.session_id", "")
	v.SetDefault("rpc.timeout", 10*time.Second)
	v.SetDefault("dashboard.refresh_interval", time.Minute)
	v.SetDefault("dashboard.manifest", "")
	v.SetDefault("http.addr", ":8080")

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if c.Dashboard.RefreshInterval < 0 {
		return Config{}, fmt.Errorf("config: dashboard.refresh_interval must not be negative")
	}
	return c, nil
}
