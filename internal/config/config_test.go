package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputFormat != "text" {
		t.Errorf("OutputFormat = %q, want text", cfg.OutputFormat)
	}
	if cfg.FailOn != "error" {
		t.Errorf("FailOn = %q, want error", cfg.FailOn)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "output_format: json\nfail_on: warning\ndisabled_rules:\n  - MissingHealthcheck\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("OutputFormat = %q, want json", cfg.OutputFormat)
	}
	if cfg.FailOn != "warning" {
		t.Errorf("FailOn = %q, want warning", cfg.FailOn)
	}
	if len(cfg.DisabledRules) != 1 || cfg.DisabledRules[0] != "MissingHealthcheck" {
		t.Errorf("DisabledRules = %v", cfg.DisabledRules)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{OutputFormat: "text", FailOn: "error"}, false},
		{"bad format", Config{OutputFormat: "xml", FailOn: "error"}, true},
		{"bad fail_on", Config{OutputFormat: "text", FailOn: "sometimes"}, true},
		{"negative concurrency", Config{OutputFormat: "text", FailOn: "never", Concurrency: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
