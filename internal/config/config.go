package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Mexc     Mexc     `mapstructure:"mexc"`
	Journal  Journal  `mapstructure:"journal"`
	Logger   Logger   `mapstructure:"logger"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port        int      `mapstructure:"port"`
	CorsOrigins []string `mapstructure:"cors_origins"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Mexc holds the configuration for the MEXC API client.
type Mexc struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// Journal holds behavior switches for the trade journal.
type Journal struct {
	// StrictDelete makes DELETE of a missing trade id return 404 instead
	// of reporting success.
	StrictDelete bool `mapstructure:"strict_delete"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"*"})
	viper.SetDefault("database.dsn", "journal.db")
	viper.SetDefault("mexc.base_url", "https://api.mexc.com/api/v3")
	viper.SetDefault("mexc.rate_limit", 10) // requests per second
	viper.SetDefault("mexc.rate_limit_burst", 5)
	viper.SetDefault("mexc.timeout_seconds", 10)
	viper.SetDefault("journal.strict_delete", false)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	// Defaults plus env vars are enough to run without a config file.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	}
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
