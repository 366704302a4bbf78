package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "STOREBOT_SERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "STOREBOT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "admin.secret_phrase", typ: kString, env: "STOREBOT_SECRET_PHRASE",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Admin.SecretPhrase = v.(string) },
		extract: func(cfg Config) any { return cfg.Admin.SecretPhrase },
	},
	{
		key: "admin.api_token", typ: kString, env: "STOREBOT_ADMIN_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Admin.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Admin.APIToken },
	},
	{
		key: "twilio.account_sid", typ: kString, env: "STOREBOT_TWILIO_ACCOUNT_SID",
		apply:   func(cfg *Config, v any) { cfg.Twilio.AccountSID = v.(string) },
		extract: func(cfg Config) any { return cfg.Twilio.AccountSID },
	},
	{
		key: "twilio.auth_token", typ: kString, env: "STOREBOT_TWILIO_AUTH_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Twilio.AuthToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Twilio.AuthToken },
	},
	{
		key: "twilio.phone_number", typ: kString, env: "STOREBOT_TWILIO_PHONE_NUMBER",
		apply:   func(cfg *Config, v any) { cfg.Twilio.PhoneNumber = v.(string) },
		extract: func(cfg Config) any { return cfg.Twilio.PhoneNumber },
	},
	{
		key: "twilio.base_url", typ: kString, env: "STOREBOT_TWILIO_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Twilio.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Twilio.BaseURL },
	},
	{
		key: "completion.api_key", typ: kString, env: "STOREBOT_COMPLETION_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Completion.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.APIKey },
	},
	{
		key: "completion.base_url", typ: kString, env: "STOREBOT_COMPLETION_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Completion.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.BaseURL },
	},
	{
		key: "completion.model", typ: kString, env: "STOREBOT_COMPLETION_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Completion.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Model },
	},
	{
		key: "completion.temperature", typ: kFloat, env: "STOREBOT_COMPLETION_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.Completion.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.Completion.Temperature },
	},
	{
		key: "completion.max_tokens", typ: kInt, env: "STOREBOT_COMPLETION_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Completion.MaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Completion.MaxTokens },
	},
	{
		key: "ledger.backend", typ: kString, env: "STOREBOT_LEDGER_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Ledger.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Ledger.Backend },
	},
	{
		key: "ledger.dsn", typ: kString, env: "STOREBOT_LEDGER_DSN",
		apply:   func(cfg *Config, v any) { cfg.Ledger.DSN = v.(string) },
		extract: func(cfg Config) any { return cfg.Ledger.DSN },
	},
	{
		key: "scheduler.follow_up_interval", typ: kString, env: "STOREBOT_SCHEDULER_FOLLOW_UP_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Scheduler.FollowUpInterval = v.(string) },
		extract: func(cfg Config) any { return cfg.Scheduler.FollowUpInterval },
	},
	{
		key: "scheduler.promo_interval", typ: kString, env: "STOREBOT_SCHEDULER_PROMO_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Scheduler.PromoInterval = v.(string) },
		extract: func(cfg Config) any { return cfg.Scheduler.PromoInterval },
	},
	{
		key: "cors.allowed_origins", typ: kString, env: "STOREBOT_CORS_ALLOWED_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.CORS.AllowedOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.CORS.AllowedOrigins },
	},
	{
		key: "log.level", typ: kString, env: "STOREBOT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.json", typ: kBool, env: "STOREBOT_LOG_JSON",
		apply:   func(cfg *Config, v any) { cfg.Log.JSON = v.(bool) },
		extract: func(cfg Config) any { return cfg.Log.JSON },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw, ok := os.LookupEnv(s.env)
		if !ok || raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
