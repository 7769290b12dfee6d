package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/loykin/oratr/internal/env"
	"github.com/loykin/oratr/internal/logger"
	"github.com/spf13/viper"
)

// Built-in defaults. The daemon address matches what the synthesis
// engine binds when launched without overrides.
const (
	DefaultHost               = "127.0.0.1"
	DefaultPort               = 8765
	DefaultIdleTimeoutMinutes = 30
	DefaultSTTModel           = "large-v3"
	DefaultTTSVoice           = "af_heart"
	DefaultTTSSpeed           = 1.0
	DefaultModelsBaseURL      = "http://127.0.0.1:11434"
)

// DaemonConfig controls the supervised synthesis daemon: where it
// listens, how it is launched, and the supervisor's timing knobs.
type DaemonConfig struct {
	Host               string        `toml:"host" mapstructure:"host"`
	Port               int           `toml:"port" mapstructure:"port"`
	IdleTimeoutMinutes int           `toml:"idle_timeout_minutes" mapstructure:"idle_timeout_minutes"`
	Command            []string      `toml:"command" mapstructure:"command"` // launch argv override; default re-execs the current binary
	Env                []string      `toml:"env" mapstructure:"env"`
	PIDFile            string        `toml:"pidfile" mapstructure:"pidfile"`
	LogFile            string        `toml:"logfile" mapstructure:"logfile"`
	StartupDeadline    time.Duration `toml:"startup_deadline" mapstructure:"startup_deadline"`
	ProbeInterval      time.Duration `toml:"probe_interval" mapstructure:"probe_interval"`
	ShutdownGrace      time.Duration `toml:"shutdown_grace" mapstructure:"shutdown_grace"`
	TermGrace          time.Duration `toml:"term_grace" mapstructure:"term_grace"`
}

// SpeechConfig selects the external engines used for synthesis and
// transcription and how audio is played back.
type SpeechConfig struct {
	STTEngine string  `toml:"stt_engine" mapstructure:"stt_engine"`
	STTModel  string  `toml:"stt_model" mapstructure:"stt_model"`
	TTSEngine string  `toml:"tts_engine" mapstructure:"tts_engine"`
	TTSVoice  string  `toml:"tts_voice" mapstructure:"tts_voice"`
	TTSSpeed  float64 `toml:"tts_speed" mapstructure:"tts_speed"`
	Player    string  `toml:"player" mapstructure:"player"` // playback command override
}

// ModelsConfig points at an Ollama-compatible model server.
type ModelsConfig struct {
	BaseURL string   `toml:"base_url" mapstructure:"base_url"`
	Keep    []string `toml:"keep" mapstructure:"keep"` // models prune never removes
}

// HistoryConfig enables recording of daemon and speech operations.
// The DSN scheme selects the backend (sqlite, postgres, clickhouse,
// opensearch).
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	DSN     string `toml:"dsn" mapstructure:"dsn"`
	Table   string `toml:"table" mapstructure:"table"`
}

// Config is the top-level configuration, loaded from TOML with
// ORATR_* environment overrides applied on top.
type Config struct {
	BaseDir  string        `toml:"base_dir" mapstructure:"base_dir"`
	Env      []string      `toml:"env" mapstructure:"env"`
	EnvFiles []string      `toml:"env_files" mapstructure:"env_files"`
	UseOSEnv bool          `toml:"use_os_env" mapstructure:"use_os_env"`
	Log      logger.Config `toml:"log" mapstructure:"log"`
	Daemon   DaemonConfig  `toml:"daemon" mapstructure:"daemon"`
	Speech   SpeechConfig  `toml:"speech" mapstructure:"speech"`
	Models   ModelsConfig  `toml:"models" mapstructure:"models"`
	History  HistoryConfig `toml:"history" mapstructure:"history"`
}

// Default returns the built-in configuration with no file or
// environment applied.
func Default() Config {
	return Config{
		UseOSEnv: true,
		Log:      logger.Config{Level: "warn"},
		Daemon: DaemonConfig{
			Host:               DefaultHost,
			Port:               DefaultPort,
			IdleTimeoutMinutes: DefaultIdleTimeoutMinutes,
			StartupDeadline:    120 * time.Second,
			ProbeInterval:      time.Second,
			ShutdownGrace:      2 * time.Second,
			TermGrace:          3 * time.Second,
		},
		Speech: SpeechConfig{
			STTEngine: "whisper",
			STTModel:  DefaultSTTModel,
			TTSEngine: "kokoro",
			TTSVoice:  DefaultTTSVoice,
			TTSSpeed:  DefaultTTSSpeed,
		},
		Models:  ModelsConfig{BaseURL: DefaultModelsBaseURL},
		History: HistoryConfig{Table: "oratr_history"},
	}
}

// Load reads configuration with precedence defaults < file < ORATR_*
// environment. path may be empty, in which case BaseDir/config.toml is
// used when present; an explicit path that cannot be read is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix("ORATR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the engine daemon historically reads these shorter names
	_ = v.BindEnv("daemon.idle_timeout_minutes", "ORATR_DAEMON_IDLE_TIMEOUT", "ORATR_DAEMON_IDLE_TIMEOUT_MINUTES")
	_ = v.BindEnv("models.base_url", "ORATR_MODELS_BASE_URL", "ORATR_MODEL_HOST")

	explicit := path != ""
	if !explicit {
		path = filepath.Join(baseDirFromEnv(v), "config.toml")
	}
	// a .env beside the config can carry ORATR_* overrides
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		// the default location is optional; an explicit file is not
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDerived(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("base_dir", "")
	v.SetDefault("use_os_env", d.UseOSEnv)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.color", d.Log.Color)
	v.SetDefault("daemon.host", d.Daemon.Host)
	v.SetDefault("daemon.port", d.Daemon.Port)
	v.SetDefault("daemon.idle_timeout_minutes", d.Daemon.IdleTimeoutMinutes)
	v.SetDefault("daemon.startup_deadline", d.Daemon.StartupDeadline.String())
	v.SetDefault("daemon.probe_interval", d.Daemon.ProbeInterval.String())
	v.SetDefault("daemon.shutdown_grace", d.Daemon.ShutdownGrace.String())
	v.SetDefault("daemon.term_grace", d.Daemon.TermGrace.String())
	v.SetDefault("speech.stt_engine", d.Speech.STTEngine)
	v.SetDefault("speech.stt_model", d.Speech.STTModel)
	v.SetDefault("speech.tts_engine", d.Speech.TTSEngine)
	v.SetDefault("speech.tts_voice", d.Speech.TTSVoice)
	v.SetDefault("speech.tts_speed", d.Speech.TTSSpeed)
	v.SetDefault("models.base_url", d.Models.BaseURL)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.table", d.History.Table)
}

// baseDirFromEnv resolves BaseDir before the config file is read so
// the default file location can live under it.
func baseDirFromEnv(v *viper.Viper) string {
	if bd := v.GetString("base_dir"); bd != "" {
		return expandHome(bd)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".oratr"
	}
	return filepath.Join(home, ".oratr")
}

// applyDerived fills path fields that default relative to BaseDir.
func applyDerived(c *Config) {
	if c.BaseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			c.BaseDir = ".oratr"
		} else {
			c.BaseDir = filepath.Join(home, ".oratr")
		}
	}
	c.BaseDir = expandHome(c.BaseDir)
	if c.Daemon.PIDFile == "" {
		c.Daemon.PIDFile = filepath.Join(c.BaseDir, "daemon.pid")
	}
	if c.Daemon.LogFile == "" {
		c.Daemon.LogFile = filepath.Join(c.BaseDir, "daemon.log")
	}
	if c.History.DSN == "" {
		c.History.DSN = "sqlite://" + filepath.Join(c.BaseDir, "history.db")
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Validate rejects values the daemon or supervisor cannot work with.
func (c *Config) Validate() error {
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return fmt.Errorf("daemon.port %d out of range", c.Daemon.Port)
	}
	if c.Daemon.Host == "" {
		return fmt.Errorf("daemon.host must not be empty")
	}
	if c.Daemon.IdleTimeoutMinutes < 0 {
		return fmt.Errorf("daemon.idle_timeout_minutes must not be negative")
	}
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"daemon.startup_deadline", c.Daemon.StartupDeadline},
		{"daemon.probe_interval", c.Daemon.ProbeInterval},
		{"daemon.shutdown_grace", c.Daemon.ShutdownGrace},
		{"daemon.term_grace", c.Daemon.TermGrace},
	} {
		if d.v < 0 {
			return fmt.Errorf("%s must not be negative", d.name)
		}
	}
	if c.Daemon.ProbeInterval == 0 {
		return fmt.Errorf("daemon.probe_interval must be positive")
	}
	if c.Speech.TTSSpeed <= 0 {
		return fmt.Errorf("speech.tts_speed must be positive")
	}
	return nil
}

// DaemonBaseURL is the HTTP base the supervisor and clients talk to.
func (c *Config) DaemonBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.Daemon.Host, c.Daemon.Port)
}

// IdleTimeout converts the configured minutes to a duration. Zero
// disables idle shutdown.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Daemon.IdleTimeoutMinutes) * time.Minute
}

// GlobalEnv composes the environment handed to the launched daemon:
// the OS environment when UseOSEnv is set, then env_files in order,
// then the top-level env list last. ${VAR} placeholders in values are
// expanded against the composed result.
func (c *Config) GlobalEnv() ([]string, error) {
	e := env.New()
	if c.UseOSEnv {
		e.FromOS()
	} else {
		e.WithoutOS()
	}
	for _, p := range c.EnvFiles {
		pairs, err := godotenv.Read(filepath.Clean(p))
		if err != nil {
			return nil, fmt.Errorf("env file %s: %w", p, err)
		}
		for k, v := range pairs {
			e.WithSet(k, v)
		}
	}
	return e.Merge(c.Env), nil
}
