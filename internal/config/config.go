package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type FeedConfig struct {
	WSBaseURL      string `mapstructure:"ws_base_url"`
	Symbol         string `mapstructure:"symbol"`
	DepthInterval  string `mapstructure:"depth_interval"`
	ReconnectDelay int    `mapstructure:"reconnect_delay_ms"`
	MaxReconnects  int    `mapstructure:"max_reconnects"`
	TradeLogSize   int    `mapstructure:"trade_log_size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	// A local .env may carry overrides during development; ignore if absent.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/bookfeed")
	}

	v.SetEnvPrefix("BOOKFEED")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&config)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_rps", 50.0)
	v.SetDefault("server.rate_limit_burst", 100)

	// Feed defaults
	v.SetDefault("feed.ws_base_url", "wss://stream.binance.com")
	v.SetDefault("feed.symbol", "")
	v.SetDefault("feed.depth_interval", "100ms")
	v.SetDefault("feed.reconnect_delay_ms", 3000)
	v.SetDefault("feed.max_reconnects", 10)
	v.SetDefault("feed.trade_log_size", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func overrideFromEnv(config *Config) {
	if wsURL := os.Getenv("BINANCE_WS_URL"); wsURL != "" {
		config.Feed.WSBaseURL = wsURL
	}
	if symbol := os.Getenv("BOOKFEED_SYMBOL"); symbol != "" {
		config.Feed.Symbol = symbol
	}
}
