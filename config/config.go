package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// DefaultDevSecret is the placeholder signing secret shipped in config.yml.
// Startup in production mode is refused while the secret still has this value.
const DefaultDevSecret = "default-secret-for-dev-only"

type Config struct {
	Mode string `mapstructure:"mode"`

	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`

	JWT struct {
		SecretKey string        `mapstructure:"secretKey"`
		TokenTTL  time.Duration `mapstructure:"tokenTTL"`
		Issuer    string        `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`

	Gateway struct {
		HTTPPort       string `mapstructure:"HTTPPort"`
		AuthServiceURL string `mapstructure:"authServiceURL"`
		FrontendURL    string `mapstructure:"frontendURL"`
	} `mapstructure:"gateway"`

	Metrics struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"metrics"`
}

// InitConfig loads configuration from a config.yml on disk, falling back to the
// embedded copy, with environment variables (AUTH_JWT_SECRETKEY, AUTH_MODE, ...)
// taking precedence over both.
func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("AUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// Validate fails fast on configuration that must never reach a running server.
func (c *Config) Validate() error {
	if c.Mode == "production" && (c.JWT.SecretKey == "" || c.JWT.SecretKey == DefaultDevSecret) {
		return errors.New("jwt.secretKey must be explicitly set in production mode")
	}
	if c.JWT.TokenTTL <= 0 {
		return errors.New("jwt.tokenTTL must be a positive duration")
	}
	return nil
}
