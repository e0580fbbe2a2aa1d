// Package config loads server configuration from a file and environment.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string // "dev" enables debug logging
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Store struct {
		Path string // SQLite path, ":memory:" supported
	} `mapstructure:"store"`

	FX struct {
		ReferenceCurrency string        `mapstructure:"reference_currency"`
		ProviderTimeout   time.Duration `mapstructure:"provider_timeout"`

		// Provider base URLs, overridable for tests and air-gapped setups.
		ExchangeRateAPIURL  string `mapstructure:"exchangerate_api_url"`
		ExchangeRateHostURL string `mapstructure:"exchangerate_host_url"`
		FixerURL            string `mapstructure:"fixer_url"`
	} `mapstructure:"fx"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Load reads the config file at path, applying APP_* environment overrides
// and defaults. An empty path skips the file and uses defaults only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("store.path", "atolye.db")
	v.SetDefault("fx.reference_currency", "TRY")
	v.SetDefault("fx.provider_timeout", 10*time.Second)
	v.SetDefault("fx.exchangerate_api_url", "https://api.exchangerate-api.com/v4/historical")
	v.SetDefault("fx.exchangerate_host_url", "https://api.exchangerate.host")
	v.SetDefault("fx.fixer_url", "https://api.fixer.io")
	v.SetDefault("metrics.enabled", true)

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
