package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type mapBackend map[string]any

func (m mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m[key]
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (m mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}
	i, _ := v.(int)
	return i, true, nil
}

func (m mapBackend) SetString(key, val string) error { m[key] = val; return nil }
func (m mapBackend) SetInt(key string, val int) error { m[key] = val; return nil }
func (m mapBackend) Delete(key string) error { delete(m, key); return nil }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		if _, ok := os.LookupEnv(s.env); ok {
			t.Setenv(s.env, "")
		}
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := loadWith(mapBackend{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:5000" {
		t.Errorf("Addr = %q, want 0.0.0.0:5000", cfg.Server.Addr())
	}
	if cfg.Admin.SecretPhrase != "admin access granted" {
		t.Errorf("SecretPhrase = %q", cfg.Admin.SecretPhrase)
	}
	if cfg.Ledger.Backend != "memory" {
		t.Errorf("Ledger.Backend = %q, want memory", cfg.Ledger.Backend)
	}
	if cfg.Scheduler.FollowUpEvery() != time.Minute {
		t.Errorf("FollowUpEvery = %v, want 1m", cfg.Scheduler.FollowUpEvery())
	}
	if cfg.Scheduler.PromoEvery() != time.Hour {
		t.Errorf("PromoEvery = %v, want 1h", cfg.Scheduler.PromoEvery())
	}
	if cfg.Completion.Temperature != 0.7 || cfg.Completion.MaxTokens != 300 {
		t.Errorf("Completion = %+v", cfg.Completion)
	}
}

func TestBackendValuesApplied(t *testing.T) {
	clearEnv(t)
	b := mapBackend{
		"server.port":            8080,
		"ledger.backend":         "sqlite",
		"ledger.dsn":             "/tmp/sales.db",
		"completion.temperature": "0.2",
		"log.json":               "true",
	}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Ledger.Backend != "sqlite" || cfg.Ledger.DSN != "/tmp/sales.db" {
		t.Errorf("Ledger = %+v", cfg.Ledger)
	}
	if cfg.Completion.Temperature != 0.2 {
		t.Errorf("Temperature = %v, want 0.2", cfg.Completion.Temperature)
	}
	if !cfg.Log.JSON {
		t.Error("Log.JSON = false, want true")
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOREBOT_SERVER_PORT", "9000")
	t.Setenv("STOREBOT_SECRET_PHRASE", "open sesame")
	t.Setenv("STOREBOT_TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("STOREBOT_LOG_JSON", "1")

	cfg, err := loadWith(mapBackend{"server.port": 8080})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Admin.SecretPhrase != "open sesame" {
		t.Errorf("SecretPhrase = %q", cfg.Admin.SecretPhrase)
	}
	if cfg.Twilio.AuthToken != "tok" {
		t.Errorf("AuthToken = %q", cfg.Twilio.AuthToken)
	}
	if !cfg.Log.JSON {
		t.Error("Log.JSON = false, want true")
	}
}

func TestInvalidEnvKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOREBOT_SERVER_PORT", "not-a-port")
	cfg, err := loadWith(mapBackend{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Port = %d, want default 5000", cfg.Server.Port)
	}
}

func TestSecretsIgnoredInBackend(t *testing.T) {
	clearEnv(t)
	cfg, err := loadWith(mapBackend{"completion.api_key": "from-file"})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Completion.APIKey != "" {
		t.Errorf("APIKey = %q, want it read only from the environment", cfg.Completion.APIKey)
	}
}

func TestInvalidLedgerBackend(t *testing.T) {
	clearEnv(t)
	if _, err := loadWith(mapBackend{"ledger.backend": "postgres"}); err == nil {
		t.Fatal("expected error for unknown ledger backend")
	}
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	for _, env := range []string{"STOREBOT_TWILIO_ACCOUNT_SID", "STOREBOT_TWILIO_AUTH_TOKEN", "STOREBOT_TWILIO_PHONE_NUMBER", "STOREBOT_COMPLETION_API_KEY"} {
		if !strings.Contains(err.Error(), env) {
			t.Errorf("error %q does not mention %s", err, env)
		}
	}

	cfg.Twilio.AccountSID = "AC1"
	cfg.Twilio.AuthToken = "tok"
	cfg.Twilio.PhoneNumber = "+14155238886"
	cfg.Completion.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}
}

func TestSchedulerIntervalsInvalid(t *testing.T) {
	s := SchedulerConfig{FollowUpInterval: "soon", PromoInterval: "-5m"}
	if s.FollowUpEvery() != 0 || s.PromoEvery() != 0 {
		t.Errorf("intervals = %v/%v, want 0/0", s.FollowUpEvery(), s.PromoEvery())
	}
}

func TestCORSOrigins(t *testing.T) {
	c := CORSConfig{AllowedOrigins: " https://a.example , ,https://b.example"}
	got := c.Origins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("Origins() = %v", got)
	}
}

func TestSetKey(t *testing.T) {
	b := mapBackend{}
	if err := setKey(b, "server.port", "7000"); err != nil {
		t.Fatalf("setKey port: %v", err)
	}
	if b["server.port"] != 7000 {
		t.Errorf("server.port = %v, want 7000", b["server.port"])
	}
	if err := setKey(b, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKey(b, "completion.temperature", "hot"); err == nil {
		t.Error("expected error for non-float temperature")
	}
	if err := setKey(b, "log.json", "maybe"); err == nil {
		t.Error("expected error for non-bool log.json")
	}
	if err := setKey(b, "twilio.auth_token", "x"); err == nil {
		t.Error("expected error for secret key")
	}
	if err := setKey(b, "nope", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storebot", "config.json")
	b := openFileBackend(path)
	if err := b.SetInt("server.port", 6000); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if err := b.SetString("log.level", "debug"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	reopened := openFileBackend(path)
	port, ok, err := reopened.GetInt("server.port")
	if err != nil || !ok || port != 6000 {
		t.Errorf("GetInt = %d, %v, %v; want 6000, true, nil", port, ok, err)
	}
	level, ok, _ := reopened.GetString("log.level")
	if !ok || level != "debug" {
		t.Errorf("GetString = %q, %v; want debug, true", level, ok)
	}

	if err := reopened.Delete("log.level"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := openFileBackend(path).GetString("log.level"); ok {
		t.Error("log.level still present after Delete")
	}
}

func TestShowAllMasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Completion.APIKey = "sk-secret"
	for _, k := range ShowAll(cfg) {
		if k.Key == "completion.api_key" && k.Value != "********" {
			t.Errorf("api key shown as %q", k.Value)
		}
		if k.Key == "server.port" && k.Value != "5000" {
			t.Errorf("server.port shown as %q", k.Value)
		}
	}
}
