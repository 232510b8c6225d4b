// internal/config/config.go
package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	AppName  string `mapstructure:"APP_NAME"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// PostgreSQL configuration
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSL_MODE"`

	// Directory holding the protected book files served through the DRM gate.
	BooksDir string `mapstructure:"BOOKS_DIR"`

	// Payment collaborator bounds.
	PaymentTimeout time.Duration `mapstructure:"PAYMENT_TIMEOUT"`

	// Tracing. Empty endpoint disables the exporter.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`

	// Search endpoint rate limit (requests per second, burst).
	SearchRPS   int `mapstructure:"SEARCH_RPS"`
	SearchBurst int `mapstructure:"SEARCH_BURST"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "inkvault")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "inkvault")
	viper.SetDefault("DB_PASSWORD", "inkvault")
	viper.SetDefault("DB_NAME", "inkvault")
	viper.SetDefault("DB_SSL_MODE", "disable")

	viper.SetDefault("BOOKS_DIR", "./private_books")
	viper.SetDefault("PAYMENT_TIMEOUT", 5*time.Second)
	viper.SetDefault("OTLP_ENDPOINT", "")
	viper.SetDefault("SEARCH_RPS", 10)
	viper.SetDefault("SEARCH_BURST", 20)

	if err = viper.ReadInConfig(); err == nil {
		log.Info().Str("file", viper.ConfigFileUsed()).Msg("Using config file")
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		log.Info().Msg("No config file found, using environment variables and defaults.")
		err = nil
	} else {
		log.Error().Err(err).Msg("Error reading config file")
		return
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	err = viper.Unmarshal(&config)
	return
}
