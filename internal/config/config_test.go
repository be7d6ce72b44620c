package config

import (
	"os"
	"path/filepath"
	"testing"
)

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	cfg := Defaults()
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_ThresholdOutOfRange(t *testing.T) {
	cfg := Defaults()
	cfg.Router.ConfidenceThreshold = 1.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for threshold > 1")
	}

	cfg.Router.ConfidenceThreshold = -0.1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative threshold")
	}
}

func TestValidate_ThresholdBoundary(t *testing.T) {
	cfg := Defaults()

	cfg.Router.ConfidenceThreshold = 0
	if err := Validate(cfg); err != nil {
		t.Fatalf("threshold=0 should be valid: %v", err)
	}

	cfg.Router.ConfidenceThreshold = 1
	if err := Validate(cfg); err != nil {
		t.Fatalf("threshold=1 should be valid: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Defaults()
	cfg.Channels.Web.Port = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative port")
	}

	cfg.Channels.Web.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for port > 65535")
	}
}

func TestValidate_InvalidBackend(t *testing.T) {
	cfg := Defaults()
	cfg.Memory.Backend = "redis"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestValidate_SQLiteRequiresPath(t *testing.T) {
	cfg := Defaults()
	cfg.Memory.Backend = "sqlite"
	cfg.Memory.DBPath = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for sqlite backend without dbPath")
	}
}

func TestValidate_UnknownDefaultReasoner(t *testing.T) {
	cfg := Defaults()
	cfg.General.DefaultReasoner = "nonexistent"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for defaultReasoner without a reasoners entry")
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars_Set(t *testing.T) {
	os.Setenv("RETIREBOT_TEST_VAR", "hello")
	defer os.Unsetenv("RETIREBOT_TEST_VAR")

	out := ExpandEnvVars("value is ${RETIREBOT_TEST_VAR}")
	if out != "value is hello" {
		t.Fatalf("expected substitution, got %q", out)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("RETIREBOT_UNSET_VAR")
	out := ExpandEnvVars("${RETIREBOT_UNSET_VAR:-fallback}")
	if out != "fallback" {
		t.Fatalf("expected fallback, got %q", out)
	}
}

func TestExpandEnvVars_UnsetNoDefault(t *testing.T) {
	os.Unsetenv("RETIREBOT_UNSET_VAR")
	out := ExpandEnvVars("${RETIREBOT_UNSET_VAR}")
	if out != "" {
		t.Fatalf("expected empty string, got %q", out)
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Defaults()
	cfg.Router.ConfidenceThreshold = 0.7
	cfg.Channels.Web.Port = 9999
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Router.ConfidenceThreshold != 0.7 {
		t.Fatalf("expected threshold 0.7, got %v", loaded.Router.ConfidenceThreshold)
	}
	if loaded.Channels.Web.Port != 9999 {
		t.Fatalf("expected port 9999, got %d", loaded.Channels.Web.Port)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"router": {"confidenceThreshold": 0.6}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Router.ConfidenceThreshold != 0.6 {
		t.Fatalf("expected 0.6 from file, got %v", cfg.Router.ConfidenceThreshold)
	}
	if cfg.Assistant.DisclaimerText != DefaultDisclaimer {
		t.Fatal("expected default disclaimer text to survive partial config")
	}
	if cfg.General.DefaultReasoner != "gemini" {
		t.Fatalf("expected default reasoner gemini, got %q", cfg.General.DefaultReasoner)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.json"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
