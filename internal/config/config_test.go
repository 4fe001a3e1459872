package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.BufferFraction != 0.20 || cfg.MaxFixes != 3 || cfg.ForecastWeeks != 13 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.BufferPolicy != BufferPolicyFraction {
		t.Errorf("BufferPolicy = %q", cfg.BufferPolicy)
	}
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	content := "MAX_FIXES=5\nREFRESH_USERS=u1,u2\nFORECAST_WEEKS=8\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FORECAST_WEEKS", "26")
	// godotenv.Load sets variables the test did not; clear them afterwards.
	t.Cleanup(func() {
		os.Unsetenv("MAX_FIXES")
		os.Unsetenv("REFRESH_USERS")
	})

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxFixes != 5 {
		t.Errorf("MaxFixes = %d, want 5", cfg.MaxFixes)
	}
	if cfg.ForecastWeeks != 26 {
		t.Errorf("existing env should win, got %d", cfg.ForecastWeeks)
	}
	if len(cfg.RefreshUsers) != 2 || cfg.RefreshUsers[1] != "u2" {
		t.Errorf("RefreshUsers = %v", cfg.RefreshUsers)
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{BufferPolicy: "rule", ForecastWeeks: 13, UseMemory: true}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.BufferPolicy = "nope"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown buffer policy")
	}

	cfg = &Config{BufferPolicy: "fraction", ForecastWeeks: 13}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing DSNs")
	}
}
