package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load("", "", "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	dir := filepath.Join(home, DefaultConfigDir)
	if cfg.ConfigDir != dir {
		t.Errorf("ConfigDir = %q, want %q", cfg.ConfigDir, dir)
	}
	if cfg.PolicyPath != filepath.Join(dir, DefaultPolicyFile) {
		t.Errorf("PolicyPath = %q", cfg.PolicyPath)
	}
	if cfg.PacksDir != filepath.Join(dir, DefaultPacksDir) {
		t.Errorf("PacksDir = %q", cfg.PacksDir)
	}
	if cfg.LogPath != filepath.Join(dir, DefaultLogFile) {
		t.Errorf("LogPath = %q", cfg.LogPath)
	}
	if cfg.Mode != ModeEnforce {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeEnforce)
	}
	if cfg.Engine != DefaultEngineConfig() {
		t.Errorf("Engine = %+v", cfg.Engine)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("config dir not created: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("config dir permissions %04o, want 0700", perm)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("/tmp/p.yaml", "/tmp/a.jsonl", "AUDIT")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.PolicyPath != "/tmp/p.yaml" || cfg.LogPath != "/tmp/a.jsonl" {
		t.Errorf("paths not overridden: %+v", cfg)
	}
	if cfg.Mode != ModeAudit {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeAudit)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", ModeEnforce, false},
		{"enforce", ModeEnforce, false},
		{" Audit ", ModeAudit, false},
		{"guardian", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
