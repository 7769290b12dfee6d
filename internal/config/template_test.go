package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStarterParsesToDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(p, Starter(), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("starter config does not load: %v", err)
	}
	d := Default()
	if cfg.Daemon.Host != d.Daemon.Host || cfg.Daemon.Port != d.Daemon.Port {
		t.Fatalf("starter daemon address diverges from defaults: %s:%d", cfg.Daemon.Host, cfg.Daemon.Port)
	}
	if cfg.Daemon.IdleTimeoutMinutes != d.Daemon.IdleTimeoutMinutes {
		t.Fatalf("starter idle timeout diverges: %d", cfg.Daemon.IdleTimeoutMinutes)
	}
	if cfg.Speech.STTModel != d.Speech.STTModel || cfg.Speech.TTSVoice != d.Speech.TTSVoice {
		t.Fatalf("starter speech section diverges: %+v", cfg.Speech)
	}
	if cfg.Models.BaseURL != d.Models.BaseURL {
		t.Fatalf("starter models base_url diverges: %s", cfg.Models.BaseURL)
	}
	if cfg.History.Enabled {
		t.Fatalf("starter must not enable history by default")
	}
}
