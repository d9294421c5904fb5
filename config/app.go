package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
)

// AppConfig holds global application configuration
var AppConfig *Config

var (
	once    sync.Once
	loadErr error
)

type Config struct {
	AppName  string `mapstructure:"APP_NAME"`
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"APP_ENV"`
	Debug    bool   `mapstructure:"DEBUG"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Console side: where the inventory service lives and how to reach it.
	APIURL     string        `mapstructure:"API_URL"`
	APIKey     string        `mapstructure:"API_KEY"`
	APIUser    string        `mapstructure:"API_USER"`
	APIPass    string        `mapstructure:"API_PASS"`
	APITimeout time.Duration `mapstructure:"API_TIMEOUT"`

	// Service side.
	AuthType               string `mapstructure:"AUTH_TYPE"`
	LowStockThreshold      int    `mapstructure:"LOW_STOCK_THRESHOLD"`
	LowStockReportSchedule string `mapstructure:"LOW_STOCK_REPORT_SCHEDULE"`
	SeedData               bool   `mapstructure:"SEED_DATA"`
	MaxUploadBytes         int64  `mapstructure:"MAX_UPLOAD_BYTES"`
}

// Defaults returns the configuration used when no variable overrides a field.
func Defaults() Config {
	return Config{
		AppName:                "Inventory Tracker",
		Port:                   "8080",
		Env:                    "development",
		LogLevel:               "info",
		APIURL:                 "http://localhost:8080/api",
		AuthType:               "none",
		LowStockThreshold:      10,
		LowStockReportSchedule: "@every 1h",
		SeedData:               true,
		MaxUploadBytes:         10 << 20,
	}
}

// Decode overlays the non-empty values of env onto Defaults. Values are weakly
// typed, so "true", "25" and "30s" land in bool, int and time.Duration fields.
func Decode(env map[string]string) (*Config, error) {
	cfg := Defaults()
	input := make(map[string]interface{}, len(env))
	for k, v := range env {
		if strings.TrimSpace(v) == "" {
			continue
		}
		input[k] = v
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           &cfg,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(input); err != nil {
		return nil, err
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &cfg, nil
}

// environ collects the process environment into a map.
func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			out[kv[:i]] = kv[i+1:]
		}
	}
	return out
}

// LoadAppConfig initializes the global AppConfig variable. An invalid value
// fails the whole load; no field falls back to its default.
func LoadAppConfig() error {
	once.Do(func() {
		AppConfig, loadErr = Decode(environ())
		if loadErr != nil {
			loadErr = fmt.Errorf("invalid configuration: %w", loadErr)
		}
	})
	return loadErr
}

// App returns AppConfig, loading it on first use. Commands call LoadAppConfig
// first and stop on its error; App panics when the environment is invalid.
func App() *Config {
	if err := LoadAppConfig(); err != nil {
		panic(err)
	}
	return AppConfig
}
