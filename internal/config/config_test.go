package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with no file: %v", err)
	}
	if cfg.Daemon.Host != DefaultHost || cfg.Daemon.Port != DefaultPort {
		t.Fatalf("unexpected daemon defaults: %s:%d", cfg.Daemon.Host, cfg.Daemon.Port)
	}
	if cfg.Daemon.IdleTimeoutMinutes != DefaultIdleTimeoutMinutes {
		t.Fatalf("unexpected idle default: %d", cfg.Daemon.IdleTimeoutMinutes)
	}
	if cfg.Daemon.StartupDeadline != 120*time.Second || cfg.Daemon.ProbeInterval != time.Second {
		t.Fatalf("unexpected timing defaults: %v %v", cfg.Daemon.StartupDeadline, cfg.Daemon.ProbeInterval)
	}
	if cfg.Speech.STTModel != DefaultSTTModel || cfg.Speech.TTSVoice != DefaultTTSVoice {
		t.Fatalf("unexpected speech defaults: %+v", cfg.Speech)
	}
	if cfg.Models.BaseURL != DefaultModelsBaseURL {
		t.Fatalf("unexpected models default: %s", cfg.Models.BaseURL)
	}
}

func TestLoadFromTOML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	data := `
base_dir = "` + dir + `"

[log]
level = "debug"

[daemon]
host = "0.0.0.0"
port = 9100
idle_timeout_minutes = 5
startup_deadline = "30s"
probe_interval = "500ms"
command = ["/usr/bin/env", "python3", "engine.py"]

[speech]
tts_voice = "bf_emma"
tts_speed = 1.3

[history]
enabled = true
dsn = "sqlite:///tmp/h.db"
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Daemon.Host != "0.0.0.0" || cfg.Daemon.Port != 9100 {
		t.Fatalf("daemon address not applied: %s:%d", cfg.Daemon.Host, cfg.Daemon.Port)
	}
	if cfg.Daemon.StartupDeadline != 30*time.Second || cfg.Daemon.ProbeInterval != 500*time.Millisecond {
		t.Fatalf("durations not parsed: %v %v", cfg.Daemon.StartupDeadline, cfg.Daemon.ProbeInterval)
	}
	if len(cfg.Daemon.Command) != 3 || cfg.Daemon.Command[0] != "/usr/bin/env" {
		t.Fatalf("command not parsed: %v", cfg.Daemon.Command)
	}
	if cfg.Speech.TTSVoice != "bf_emma" || cfg.Speech.TTSSpeed != 1.3 {
		t.Fatalf("speech overrides not applied: %+v", cfg.Speech)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level not applied: %s", cfg.Log.Level)
	}
	if !cfg.History.Enabled || cfg.History.DSN != "sqlite:///tmp/h.db" {
		t.Fatalf("history not applied: %+v", cfg.History)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(file, []byte("[daemon]\nport = 9100\n"), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	t.Setenv("ORATR_DAEMON_PORT", "9200")
	t.Setenv("ORATR_DAEMON_HOST", "10.0.0.5")
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Daemon.Port != 9200 || cfg.Daemon.Host != "10.0.0.5" {
		t.Fatalf("env did not win over file: %s:%d", cfg.Daemon.Host, cfg.Daemon.Port)
	}
}

func TestEnvIdleTimeoutShortName(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ORATR_DAEMON_IDLE_TIMEOUT", "7")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Daemon.IdleTimeoutMinutes != 7 {
		t.Fatalf("short env name not honored: %d", cfg.Daemon.IdleTimeoutMinutes)
	}
	if cfg.IdleTimeout() != 7*time.Minute {
		t.Fatalf("IdleTimeout conversion wrong: %v", cfg.IdleTimeout())
	}
}

func TestEnvModelHostShortName(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ORATR_MODEL_HOST", "http://10.0.0.9:11434")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Models.BaseURL != "http://10.0.0.9:11434" {
		t.Fatalf("short env name not honored: %s", cfg.Models.BaseURL)
	}
}

func TestDotenvBesideConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(file, []byte("[daemon]\nport = 9100\n"), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ORATR_DAEMON_PORT=9321\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv.Load never overrides a variable that is already set
	t.Setenv("ORATR_DAEMON_PORT", "")
	_ = os.Unsetenv("ORATR_DAEMON_PORT")

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Daemon.Port != 9321 {
		t.Fatalf(".env override not applied: %d", cfg.Daemon.Port)
	}
}

func TestExplicitMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestDerivedPaths(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	file := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(file, []byte("base_dir = \""+dir+"\"\n"), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Daemon.PIDFile != filepath.Join(dir, "daemon.pid") {
		t.Fatalf("pidfile not derived from base_dir: %s", cfg.Daemon.PIDFile)
	}
	if cfg.Daemon.LogFile != filepath.Join(dir, "daemon.log") {
		t.Fatalf("logfile not derived from base_dir: %s", cfg.Daemon.LogFile)
	}
	if !strings.HasPrefix(cfg.History.DSN, "sqlite://") || !strings.Contains(cfg.History.DSN, dir) {
		t.Fatalf("history dsn not derived: %s", cfg.History.DSN)
	}
}

func TestDaemonBaseURL(t *testing.T) {
	c := Default()
	c.Daemon.Host = "localhost"
	c.Daemon.Port = 8100
	if got := c.DaemonBaseURL(); got != "http://localhost:8100" {
		t.Fatalf("base url: %s", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port-zero", func(c *Config) { c.Daemon.Port = 0 }},
		{"port-high", func(c *Config) { c.Daemon.Port = 70000 }},
		{"empty-host", func(c *Config) { c.Daemon.Host = "" }},
		{"negative-idle", func(c *Config) { c.Daemon.IdleTimeoutMinutes = -1 }},
		{"zero-probe", func(c *Config) { c.Daemon.ProbeInterval = 0 }},
		{"negative-grace", func(c *Config) { c.Daemon.ShutdownGrace = -time.Second }},
		{"zero-speed", func(c *Config) { c.Speech.TTSSpeed = 0 }},
	}
	for _, tc := range cases {
		c := Default()
		tc.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
	ok := Default()
	if err := ok.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
