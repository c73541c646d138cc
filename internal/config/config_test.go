package config

import (
	"log/slog"
	"os"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"GEMINI_API_KEY", "NEXUS_MODEL", "NEXUS_SAVE_DB", "NEXUS_STORAGE_QUOTA", "NEXUS_EXPORT_DIR", "NEXUS_LOG_FILE", "NEXUS_LOG_LEVEL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Model != "gemini-2.5-flash" || cfg.SaveDB != ".saves/nexus.db" || cfg.StorageQuota != 5242880 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if err := cfg.RequireAPIKey(); err == nil {
		t.Error("Expected an error without an API key")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("NEXUS_STORAGE_QUOTA", "1024")
	t.Setenv("NEXUS_LOG_LEVEL", "DEBUG")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("RequireAPIKey: %v", err)
	}
	if cfg.StorageQuota != 1024 {
		t.Errorf("Expected quota 1024, got %d", cfg.StorageQuota)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", cfg.Level())
	}
}

func TestLoadConfigRejectsBadQuota(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, v := range []string{"lots", "-1"} {
		t.Setenv("NEXUS_STORAGE_QUOTA", v)
		if _, err := LoadConfig(); err == nil {
			t.Errorf("Expected an error for quota %q", v)
		}
	}
}
