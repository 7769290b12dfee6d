package record

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ffmpeg names its capture input formats after the OS audio stack.
const (
	backendAVFoundation = "avfoundation"
	backendPulse        = "pulse"
	backendALSA         = "alsa"
	backendDShow        = "dshow"
)

func defaultBackend() string {
	switch runtime.GOOS {
	case "darwin":
		return backendAVFoundation
	case "windows":
		return backendDShow
	default:
		return backendPulse
	}
}

// inputArgs builds the "-f BACKEND -i DEVICE" pair. Device naming
// differs per backend: avfoundation wants ":N" for audio-only capture,
// dshow wants "audio=NAME", pulse and alsa take a source name.
func inputArgs(backend, device string) ([]string, error) {
	switch backend {
	case backendAVFoundation:
		if device == "" {
			device = "0"
		}
		return []string{"-f", backend, "-i", ":" + device}, nil
	case backendPulse, backendALSA:
		if device == "" {
			device = "default"
		}
		return []string{"-f", backend, "-i", device}, nil
	case backendDShow:
		if device == "" {
			return nil, fmt.Errorf("dshow capture needs a device name, list devices first")
		}
		return []string{"-f", backend, "-i", "audio=" + device}, nil
	default:
		return nil, fmt.Errorf("unknown capture backend %q", backend)
	}
}

// Devices returns ffmpeg's capture-device listing as printed by
// ffmpeg. avfoundation exits non-zero after listing, so the exit code
// is ignored whenever a listing came back.
func Devices(ctx context.Context, opts Options) (string, error) {
	r := New(opts)
	if err := r.Preflight(); err != nil {
		return "", err
	}
	var args []string
	switch r.opts.Backend {
	case backendAVFoundation:
		args = []string{"-hide_banner", "-f", backendAVFoundation, "-list_devices", "true", "-i", ""}
	default:
		args = []string{"-hide_banner", "-sources", r.opts.Backend}
	}
	out, err := exec.CommandContext(ctx, r.opts.FFmpeg, args...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil && text == "" {
		return "", fmt.Errorf("list devices: %w", err)
	}
	return text, nil
}
