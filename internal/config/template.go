package config

import "fmt"

// Starter returns a commented starter configuration. Values shown
// uncommented are the built-in defaults, so the file works as written
// and documents what can be changed. Written by "oratr config init".
func Starter() []byte {
	d := Default()
	return []byte(fmt.Sprintf(`# oratr configuration.
# Every key is optional; missing keys use built-in defaults.
# Environment variables override file values: ORATR_DAEMON_PORT etc.

# Where oratr keeps its pidfile, daemon log and history database.
# base_dir = "~/.oratr"

[log]
level = %q # debug, info, warn, error
# color = true
# [log.file]
# path = "~/.oratr/oratr.log"
# max_size_mb = 10
# max_backups = 3

[daemon]
host = %q
port = %d
# Stop the daemon after this long without a synthesis request.
idle_timeout_minutes = %d
# startup_deadline = "120s"
# probe_interval = "1s"
# Launch argv override; the default re-executes the oratr binary.
# command = ["/usr/bin/env", "python3", "engine.py"]

[speech]
stt_engine = %q
stt_model = %q
tts_engine = %q
tts_voice = %q
tts_speed = %.1f
# Playback command override; the default picks the first of
# afplay, ffplay, aplay, paplay found on PATH.
# player = "afplay"

[models]
base_url = %q
# Models "oratr model prune" never removes.
# keep = ["llama3.2:3b"]

[history]
enabled = %t
# sqlite file by default; postgres://, clickhouse:// and
# opensearch:// DSNs select the other sinks.
# dsn = "~/.oratr/history.db"
# table = %q
`,
		d.Log.Level,
		d.Daemon.Host, d.Daemon.Port, d.Daemon.IdleTimeoutMinutes,
		d.Speech.STTEngine, d.Speech.STTModel, d.Speech.TTSEngine, d.Speech.TTSVoice, d.Speech.TTSSpeed,
		d.Models.BaseURL,
		d.History.Enabled, d.History.Table,
	))
}
