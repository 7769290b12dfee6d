package synth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a unix shell")
	}
}

// writeFakeEngine drops a shell script that stands in for the TTS CLI.
// $1 is the input text file, $2 the output wav path.
func writeFakeEngine(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-tts")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake engine: %v", err)
	}
	return path
}

func TestKokoroSynthesizeRunsEngine(t *testing.T) {
	requireUnix(t)
	argsFile := filepath.Join(t.TempDir(), "args")
	engine := writeFakeEngine(t, `echo "$@" > `+argsFile+`
cp "$1" "$2"`)

	k := NewKokoro(KokoroOptions{Command: engine})
	got, err := k.Synthesize(context.Background(), Request{Text: "hello world"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if string(got) != "hello world" {
		t.Errorf("output = %q, want the text the fake engine copied", got)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	for _, want := range []string{"--voice af_heart", "--speed 1", "--lang en-us"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("engine args %q missing %q", strings.TrimSpace(string(args)), want)
		}
	}
}

func TestKokoroRequestOverridesDefaults(t *testing.T) {
	requireUnix(t)
	argsFile := filepath.Join(t.TempDir(), "args")
	engine := writeFakeEngine(t, `echo "$@" > `+argsFile+`
cp "$1" "$2"`)

	k := NewKokoro(KokoroOptions{Command: engine})
	_, err := k.Synthesize(context.Background(), Request{Text: "你好", Voice: "zf_xiaobei", Speed: 1.5})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	args, _ := os.ReadFile(argsFile)
	for _, want := range []string{"--voice zf_xiaobei", "--speed 1.5", "--lang cmn"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("engine args %q missing %q", strings.TrimSpace(string(args)), want)
		}
	}
}

func TestKokoroEmptyText(t *testing.T) {
	k := NewKokoro(KokoroOptions{Command: "/does/not/exist"})
	if _, err := k.Synthesize(context.Background(), Request{Text: "   "}); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("err = %v, want ErrEmptyText", err)
	}
}

func TestKokoroEngineFailureSurfacesStderr(t *testing.T) {
	requireUnix(t)
	engine := writeFakeEngine(t, `echo "model not found" >&2
exit 3`)
	k := NewKokoro(KokoroOptions{Command: engine})
	_, err := k.Synthesize(context.Background(), Request{Text: "hi"})
	if err == nil {
		t.Fatalf("expected engine failure")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error %q should carry the engine's stderr", err)
	}
}

func TestKokoroEmptyOutputIsAnError(t *testing.T) {
	requireUnix(t)
	engine := writeFakeEngine(t, `: > "$2"`)
	k := NewKokoro(KokoroOptions{Command: engine})
	if _, err := k.Synthesize(context.Background(), Request{Text: "hi"}); err == nil {
		t.Fatalf("empty engine output should be an error")
	}
}

func TestKokoroHonorsContextDeadline(t *testing.T) {
	requireUnix(t)
	engine := writeFakeEngine(t, `sleep 5
cp "$1" "$2"`)
	k := NewKokoro(KokoroOptions{Command: engine})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	began := time.Now()
	_, err := k.Synthesize(ctx, Request{Text: "hi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if time.Since(began) > 2*time.Second {
		t.Errorf("engine was not killed promptly on deadline")
	}
}

func TestKokoroPreflight(t *testing.T) {
	requireUnix(t)
	if err := NewKokoro(KokoroOptions{Command: "sh"}).Preflight(); err != nil {
		t.Errorf("sh should pass preflight: %v", err)
	}
	k := NewKokoro(KokoroOptions{Command: "oratr-no-such-engine"})
	if err := k.Preflight(); err == nil {
		t.Errorf("missing binary should fail preflight")
	}
	if k.Ready() {
		t.Errorf("Ready should be false when preflight fails")
	}
}
