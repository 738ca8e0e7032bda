package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Settings struct {
	Addr     string           `mapstructure:"addr"`
	Upstream UpstreamSettings `mapstructure:"upstream"`
	Cache    CacheSettings    `mapstructure:"cache"`
}

type UpstreamSettings struct {
	BaseURL       string        `mapstructure:"base_url"`
	MaxPages      int           `mapstructure:"max_pages"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryWaitMin  time.Duration `mapstructure:"retry_wait_min"`
	RetryWaitMax  time.Duration `mapstructure:"retry_wait_max"`
	RateLimitWait time.Duration `mapstructure:"rate_limit_wait"`
	PageDelay     time.Duration `mapstructure:"page_delay"`
	ReportDelay   time.Duration `mapstructure:"report_delay"`
}

type CacheSettings struct {
	TTL       time.Duration `mapstructure:"ttl"`
	Retention time.Duration `mapstructure:"retention"`
}

// Load reads settings from the given file (optional) with SALES_BOARD_*
// environment overrides on top of the built-in defaults.
func Load(path string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("upstream.base_url", "https://clinic.beautycenter.id/api")
	v.SetDefault("upstream.max_pages", 50)
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.retry_wait_min", time.Second)
	v.SetDefault("upstream.retry_wait_max", 5*time.Second)
	v.SetDefault("upstream.rate_limit_wait", 3*time.Second)
	v.SetDefault("upstream.page_delay", 150*time.Millisecond)
	v.SetDefault("upstream.report_delay", 200*time.Millisecond)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.retention", 24*time.Hour)

	v.SetEnvPrefix("SALES_BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &settings, nil
}
