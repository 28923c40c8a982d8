package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func chTempDir(t *testing.T) {
	t.Helper()
	// Switch to a temp directory to avoid loading a real .env
	origDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("could not chdir to temp dir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(origDir); err != nil {
			t.Fatalf("could not chdir back to original dir: %v", err)
		}
	})
}

func setRequired(t *testing.T) map[string]string {
	t.Helper()
	reqs := map[string]string{
		"BACKEND_URL":      "https://backend.example",
		"BACKEND_ANON_KEY": "anon-key",
		"REDIS_ADDR":       "localhost:6379",
		"SERVER_PORT":      "8080",
	}
	for k, v := range reqs {
		t.Setenv(k, v)
	}
	return reqs
}

func TestLoad_Success(t *testing.T) {
	chTempDir(t)
	reqs := setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BackendURL != reqs["BACKEND_URL"] {
		t.Errorf("BackendURL: expected %q, got %q", reqs["BACKEND_URL"], cfg.BackendURL)
	}
	if cfg.BackendAnonKey != reqs["BACKEND_ANON_KEY"] {
		t.Errorf("BackendAnonKey: expected %q, got %q", reqs["BACKEND_ANON_KEY"], cfg.BackendAnonKey)
	}
	if cfg.RedisAddr != reqs["REDIS_ADDR"] {
		t.Errorf("RedisAddr: expected %q, got %q", reqs["REDIS_ADDR"], cfg.RedisAddr)
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort: expected %d, got %d", 8080, cfg.ServerPort)
	}

	// Defaults
	if cfg.SignedURLTTL != time.Hour {
		t.Errorf("SignedURLTTL: expected %v, got %v", time.Hour, cfg.SignedURLTTL)
	}
	if cfg.RefreshLead != time.Minute {
		t.Errorf("RefreshLead: expected %v, got %v", time.Minute, cfg.RefreshLead)
	}
	if cfg.CreationTimeout != 30*time.Second {
		t.Errorf("CreationTimeout: expected %v, got %v", 30*time.Second, cfg.CreationTimeout)
	}
	if cfg.StorageBucket != "videos" {
		t.Errorf("StorageBucket: expected %q, got %q", "videos", cfg.StorageBucket)
	}
}

func TestLoad_Overrides(t *testing.T) {
	chTempDir(t)
	setRequired(t)
	t.Setenv("SIGNED_URL_TTL", "600")
	t.Setenv("SIGNED_URL_REFRESH_LEAD", "30")
	t.Setenv("CREATION_TIMEOUT", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.SignedURLTTL != 10*time.Minute {
		t.Errorf("SignedURLTTL: expected %v, got %v", 10*time.Minute, cfg.SignedURLTTL)
	}
	if cfg.RefreshLead != 30*time.Second {
		t.Errorf("RefreshLead: expected %v, got %v", 30*time.Second, cfg.RefreshLead)
	}
	if cfg.CreationTimeout != 10*time.Second {
		t.Errorf("CreationTimeout: expected %v, got %v", 10*time.Second, cfg.CreationTimeout)
	}
}

func TestLoad_MissingRequiredVars(t *testing.T) {
	cases := []string{
		"BACKEND_URL",
		"BACKEND_ANON_KEY",
		"REDIS_ADDR",
		"SERVER_PORT",
	}

	for _, missing := range cases {
		t.Run(missing, func(t *testing.T) {
			chTempDir(t)
			reqs := setRequired(t)
			for k := range reqs {
				if k == missing {
					os.Unsetenv(k)
				}
			}

			_, err := Load()
			if err == nil {
				t.Fatalf("expected an error when %s is missing", missing)
			}
			if !strings.Contains(err.Error(), missing+" is required") {
				t.Errorf("error = %q; want it to mention %q", err, missing+" is required")
			}
		})
	}
}
