package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// players are probed in order when no override is configured. afplay
// ships with macOS; the rest cover Linux setups.
var players = []string{"afplay", "ffplay", "aplay", "paplay"}

// FindPlayer resolves the playback command: the override when given,
// otherwise the first known player on PATH.
func FindPlayer(override string) (string, error) {
	if override != "" {
		if _, err := exec.LookPath(override); err != nil {
			return "", fmt.Errorf("player %q not found: %w", override, err)
		}
		return override, nil
	}
	for _, p := range players {
		if _, err := exec.LookPath(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no audio player found (tried %s)", strings.Join(players, ", "))
}

// playerArgs builds the invocation for a known player. ffplay needs
// flags to behave as a headless one-shot player; unknown overrides get
// just the file.
func playerArgs(player, wavPath string) []string {
	switch filepath.Base(player) {
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "error", wavPath}
	case "aplay":
		return []string{"-q", wavPath}
	default:
		return []string{wavPath}
	}
}

// Play writes wav to a temp file and plays it with the given player,
// blocking until playback ends or ctx is cancelled.
func Play(ctx context.Context, player string, wav []byte) error {
	f, err := os.CreateTemp("", "oratr-say-*.wav")
	if err != nil {
		return fmt.Errorf("create temp wav: %w", err)
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()
	if _, err := f.Write(wav); err != nil {
		_ = f.Close()
		return fmt.Errorf("write temp wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp wav: %w", err)
	}
	return PlayFile(ctx, player, path)
}

// PlayFile plays an existing WAV file.
func PlayFile(ctx context.Context, player, wavPath string) error {
	cmd := exec.CommandContext(ctx, player, playerArgs(player, wavPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s failed: %w: %s", filepath.Base(player), err, firstLine(string(out)))
	}
	return nil
}
