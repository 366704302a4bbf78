package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Admin      AdminConfig
	Twilio     TwilioConfig
	Completion CompletionConfig
	Ledger     LedgerConfig
	Scheduler  SchedulerConfig
	CORS       CORSConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type AdminConfig struct {
	SecretPhrase string
	APIToken     string
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	BaseURL     string
}

type CompletionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

type LedgerConfig struct {
	Backend string // "memory" or "sqlite"
	DSN     string
}

type SchedulerConfig struct {
	FollowUpInterval string
	PromoInterval    string
}

// FollowUpEvery parses FollowUpInterval; invalid values yield 0 (the
// scheduler default).
func (s SchedulerConfig) FollowUpEvery() time.Duration { return parseDuration(s.FollowUpInterval) }

// PromoEvery parses PromoInterval; invalid values yield 0.
func (s SchedulerConfig) PromoEvery() time.Duration { return parseDuration(s.PromoInterval) }

type CORSConfig struct {
	AllowedOrigins string // comma separated
}

// Origins splits AllowedOrigins.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type LogConfig struct {
	Level string
	JSON  bool
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Admin: AdminConfig{
			SecretPhrase: "admin access granted",
		},
		Twilio: TwilioConfig{
			BaseURL: "https://api.twilio.com",
		},
		Completion: CompletionConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			Temperature: 0.7,
			MaxTokens:   300,
		},
		Ledger: LedgerConfig{
			Backend: "memory",
			DSN:     ":memory:",
		},
		Scheduler: SchedulerConfig{
			FollowUpInterval: "60s",
			PromoInterval:    "1h",
		},
		CORS: CORSConfig{
			AllowedOrigins: "*",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/storebot/config.json, then applies STOREBOT_* environment
// overrides. Secrets are only read from the environment.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Ledger.Backend != "memory" && cfg.Ledger.Backend != "sqlite" {
		return Config{}, fmt.Errorf("invalid ledger.backend %q: want memory or sqlite", cfg.Ledger.Backend)
	}
	return cfg, nil
}

// Validate reports missing settings required to serve traffic.
func (c Config) Validate() error {
	var missing []string
	if c.Twilio.AccountSID == "" {
		missing = append(missing, "STOREBOT_TWILIO_ACCOUNT_SID")
	}
	if c.Twilio.AuthToken == "" {
		missing = append(missing, "STOREBOT_TWILIO_AUTH_TOKEN")
	}
	if c.Twilio.PhoneNumber == "" {
		missing = append(missing, "STOREBOT_TWILIO_PHONE_NUMBER")
	}
	if c.Completion.APIKey == "" {
		missing = append(missing, "STOREBOT_COMPLETION_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: set %s", strings.Join(missing, ", "))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Completion.MaxTokens <= 0 {
		return errors.New("completion.max_tokens must be positive")
	}
	return nil
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}
