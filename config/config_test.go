package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Service.Name != "auth-gateway" {
		t.Errorf("service name default: got %q", cfg.Service.Name)
	}
	if cfg.Auth.TokenTTL != 10*time.Minute {
		t.Errorf("token TTL default: want 10m, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.TokenIssuer != "AUTH_SERVICE" {
		t.Errorf("token issuer default: got %q", cfg.Auth.TokenIssuer)
	}
	if cfg.HR.MaxRetries != 2 {
		t.Errorf("HR retries default: want 2, got %d", cfg.HR.MaxRetries)
	}
	if cfg.HR.CallTimeout != 5*time.Second {
		t.Errorf("HR call timeout default: want 5s, got %v", cfg.HR.CallTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("SERVICE_PORT", "9999")
	t.Setenv("HR_FETCH_RETRIES", "4")

	cfg := Load()
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("TOKEN_TTL override: want 30m, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Service.Port != "9999" {
		t.Errorf("SERVICE_PORT override: got %q", cfg.Service.Port)
	}
	if cfg.HR.MaxRetries != 4 {
		t.Errorf("HR_FETCH_RETRIES override: got %d", cfg.HR.MaxRetries)
	}
}

func TestValidate_RequiredValues(t *testing.T) {
	valid := func() *Config {
		cfg := Load()
		cfg.Database.URL = "postgres://localhost/auth"
		cfg.Auth.PrivateKeyPath = "keys/private.pem"
		cfg.HR.BaseURL = "http://hr.internal"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := valid()
	cfg.Database.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing DATABASE_URL accepted")
	}

	cfg = valid()
	cfg.HR.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("missing HR_SERVICE_URL accepted")
	}

	cfg = valid()
	cfg.HR.MaxRetries = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero HR_FETCH_RETRIES accepted")
	}
}
