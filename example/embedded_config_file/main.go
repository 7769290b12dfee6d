package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/loykin/oratr"
)

// This example loads a TOML config file and drives the synthesis daemon
// through the public oratr facade: start it, speak through it, stop it.
func main() {
	// Use the sample config next to this file (adjust path if running from a different cwd).
	// An empty path falls back to ~/.oratr/config.toml when present.
	cfg, err := oratr.LoadConfig(filepath.Join("example", "embedded_config_file", "config.toml"))
	if err != nil {
		panic(err)
	}

	sup := oratr.NewSupervisor(oratr.DaemonConfig{
		Name:            "oratr-daemon",
		Command:         cfg.Daemon.Command,
		PIDFile:         cfg.Daemon.PIDFile,
		LogFile:         cfg.Daemon.LogFile,
		BaseURL:         cfg.DaemonBaseURL(),
		StartupDeadline: cfg.Daemon.StartupDeadline,
		ProbeInterval:   cfg.Daemon.ProbeInterval,
	})

	ctx := context.Background()
	st, err := sup.Start(ctx)
	if err != nil {
		panic(err)
	}
	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))

	// Speak through the running daemon.
	cl := oratr.NewClient(oratr.ClientConfig{BaseURL: cfg.DaemonBaseURL()})
	wav, err := cl.Synthesize(ctx, oratr.SynthesizeRequest{Text: "hello from the embedded client"})
	if err != nil {
		panic(err)
	}
	out := filepath.Join(os.TempDir(), "oratr-example.wav")
	if err := os.WriteFile(out, wav, 0o644); err != nil {
		panic(err)
	}
	fmt.Println("wrote", out)

	if err := sup.Stop(ctx); err != nil {
		panic(err)
	}
}
