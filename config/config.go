// Package config loads the dispatcher configuration from the environment
// and optional .env files, and validates it.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/adamwoolhether/dispatch/proxy"
)

// Prefix namespaces every environment variable, e.g. DISPATCH_HTTP_TIMEOUT.
const Prefix = "DISPATCH"

// Config holds all dispatcher configuration.
type Config struct {
	App     AppConfig     `envconfig:"APP"`
	Account AccountConfig `envconfig:"ACCOUNT"`
	Proxy   ProxyConfig   `envconfig:"PROXY"`
	HTTP    HTTPConfig    `envconfig:"HTTP"`
	Torrent TorrentConfig `envconfig:"TORRENT"`
}

// AppConfig identifies the application and where it keeps its data.
type AppConfig struct {
	Name      string `envconfig:"NAME" default:"dispatch" validate:"required"`
	Version   string `envconfig:"VERSION" default:"1.0" validate:"required"`
	UserAgent string `envconfig:"USER_AGENT"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	DataDir   string `envconfig:"DATA_DIR" default:"data" validate:"required"`
}

// Agent returns the User-Agent header value, derived from Name and
// Version unless set explicitly.
func (a AppConfig) Agent() string {
	if a.UserAgent != "" {
		return a.UserAgent
	}
	return a.Name + "/" + a.Version
}

// AccountConfig holds the configured account name.
type AccountConfig struct {
	User string `envconfig:"USER"`
}

// ProxyConfig holds the outbound proxy. An empty host connects directly.
type ProxyConfig struct {
	Host string `envconfig:"HOST" validate:"omitempty,hostname_port|url"`
	User string `envconfig:"USER" validate:"required_with=Pass"`
	Pass string `envconfig:"PASS"`
}

// Settings converts the configuration to proxy settings.
func (p ProxyConfig) Settings() proxy.Settings {
	return proxy.Settings{Host: p.Host, User: p.User, Pass: p.Pass}
}

// HTTPConfig tunes the clients.
type HTTPConfig struct {
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"30s" validate:"gte=0"`
	MaxRedirects  int           `envconfig:"MAX_REDIRECTS" default:"10" validate:"gte=0,lte=50"`
	RedirectHosts []string      `envconfig:"REDIRECT_HOSTS" validate:"dive,required"`
	ThrottleRPS   int           `envconfig:"THROTTLE_RPS" default:"0" validate:"gte=0"`
	ThrottleBurst int           `envconfig:"THROTTLE_BURST" default:"1" validate:"gte=1"`
	MaxConcurrent int           `envconfig:"MAX_CONCURRENT" default:"8" validate:"gte=1,lte=64"`
}

// TorrentConfig drives what happens with new feed items.
type TorrentConfig struct {
	NewAction    string `envconfig:"NEW_ACTION" default:"notify" validate:"oneof=none notify download"`
	AppMode      string `envconfig:"APP_MODE" default:"default" validate:"oneof=none default custom"`
	AppPath      string `envconfig:"APP_PATH" validate:"required_if=AppMode custom"`
	SetFolder    bool   `envconfig:"SET_FOLDER" default:"false"`
	UseFolder    bool   `envconfig:"USE_FOLDER" default:"false"`
	DownloadPath string `envconfig:"DOWNLOAD_PATH"`
	CreateFolder bool   `envconfig:"CREATE_FOLDER" default:"false"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		App: AppConfig{
			Name:    "dispatch",
			Version: "1.0",
			DataDir: "data",
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			MaxRedirects:  10,
			ThrottleBurst: 1,
			MaxConcurrent: 8,
		},
		Torrent: TorrentConfig{
			NewAction: "notify",
			AppMode:   "default",
		},
	}
}

// Load reads envFiles into the environment, then processes the DISPATCH_
// variables and validates the result. Variables already set in the
// environment take precedence over the files.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, fmt.Errorf("loading env files: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("processing environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
