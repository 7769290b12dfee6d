package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/oratr"
)

// embedded_logger: demonstrate oratr's structured logging setup.
// The same LogConfig feeds both the colored console handler used by
// the CLI and the rotating file handler used by the daemon.
func main() {
	// Determine log directory: use ORATR_LOG_DIR if set, otherwise a temp directory.
	logDir := os.Getenv("ORATR_LOG_DIR")
	if logDir == "" {
		logDir = filepath.Join(os.TempDir(), fmt.Sprintf("oratr-logs-%d", time.Now().UnixNano()))
	}
	_ = os.MkdirAll(logDir, 0o750)

	// Console: colored, debug level, straight to stderr.
	console := oratr.LogConfig{Level: "debug", Color: true}.New(os.Stderr)
	console.Debug("console handler ready")
	console.Info("synthesis engine probe", "engine", "kokoro", "ready", true)
	console.Warn("daemon idle", "idle", "12m30s")

	// File: rotated with lumberjack (10 MB / 3 backups / 7 days by default).
	fileCfg := oratr.LogConfig{
		Level: "info",
		File:  oratr.LogFileConfig{Dir: logDir, MaxSizeMB: 5, MaxBackups: 2},
	}
	fileLog := fileCfg.New(nil)
	fileLog.Info("daemon started", "addr", "127.0.0.1:8765")
	fileLog.Info("synthesize", "voice", "af_heart", "chars", 42, "duration_ms", 380)

	fmt.Println("Embedded logger example")
	fmt.Println("  Log directory:", logDir)
	fmt.Println("  Rotated log:", filepath.Join(logDir, "oratr.log"))
	fmt.Println("Tip: set ORATR_LOG_DIR to choose a custom log directory.")
}
