package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Name     string        `yaml:"name" env:"APP_NAME"`
	Days     int           `yaml:"days" env:"APP_DAYS"`
	Ratio    float64       `yaml:"ratio" env:"APP_RATIO"`
	Enabled  bool          `yaml:"enabled" env:"APP_ENABLED"`
	Timeout  time.Duration `yaml:"timeout" env:"APP_TIMEOUT"`
	Keywords []string      `yaml:"keywords" env:"APP_KEYWORDS"`
	Store    struct {
		Path string `yaml:"path" env:"APP_STORE_PATH"`
	} `yaml:"store"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
name: review
days: 7
ratio: 0.7
enabled: true
timeout: 90s
keywords: [Sahel, ECOWAS]
store:
  path: data/index.db
`)

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "review" || cfg.Days != 7 || cfg.Ratio != 0.7 || !cfg.Enabled {
		t.Fatalf("unexpected scalar values: %+v", cfg)
	}
	if cfg.Timeout != 90*time.Second {
		t.Fatalf("expected 90s timeout, got %s", cfg.Timeout)
	}
	if len(cfg.Keywords) != 2 || cfg.Keywords[1] != "ECOWAS" {
		t.Fatalf("unexpected keywords: %v", cfg.Keywords)
	}
	if cfg.Store.Path != "data/index.db" {
		t.Fatalf("expected nested path, got %q", cfg.Store.Path)
	}
}

func TestLoad_ExpandsVariables(t *testing.T) {
	t.Setenv("REVIEW_HOME", "/srv/review")
	path := writeConfig(t, "store:\n  path: ${REVIEW_HOME}/index.db\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Path != "/srv/review/index.db" {
		t.Fatalf("expected expanded path, got %q", cfg.Store.Path)
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeConfig(t, "name: default\ndays: 3\n")

	t.Setenv("APP_NAME", "from-env")
	t.Setenv("APP_DAYS", "14")
	t.Setenv("APP_ENABLED", "true")
	t.Setenv("APP_TIMEOUT", "2m")
	t.Setenv("APP_KEYWORDS", "Mali, Niger ,,Burkina Faso")
	t.Setenv("APP_STORE_PATH", "/tmp/x.db")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from-env" || cfg.Days != 14 || !cfg.Enabled {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Timeout != 2*time.Minute {
		t.Fatalf("expected 2m, got %s", cfg.Timeout)
	}
	want := []string{"Mali", "Niger", "Burkina Faso"}
	if len(cfg.Keywords) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Keywords)
	}
	for i := range want {
		if cfg.Keywords[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfg.Keywords)
		}
	}
	if cfg.Store.Path != "/tmp/x.db" {
		t.Fatalf("expected nested env override, got %q", cfg.Store.Path)
	}
}

func TestEnvOverride_InvalidValue(t *testing.T) {
	path := writeConfig(t, "days: 3\n")
	t.Setenv("APP_DAYS", "seven")

	var cfg testConfig
	if err := Load(path, &cfg); err == nil {
		t.Fatal("expected error for non-numeric APP_DAYS")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg := testConfig{Name: "kept"}
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Name != "kept" {
		t.Fatalf("expected defaults to survive, got %q", cfg.Name)
	}
}

func TestApplyEnv_RejectsNonPointer(t *testing.T) {
	if err := ApplyEnv(testConfig{}); err == nil {
		t.Fatal("expected error for non-pointer")
	}
}
