package server

import (
	"strings"
	"testing"
)

func TestIsSafeToken(t *testing.T) {
	safe := []string{"", "af_heart", "zf_xiaobei", "en-us", "pt-br", "large-v3", "Voice.2"}
	for _, s := range safe {
		if !isSafeToken(s) {
			t.Errorf("isSafeToken(%q) = false, want true", s)
		}
	}
	unsafe := []string{"..", "a..b", "../etc/passwd", "voice/with/slash", `voice\back`, "voice name", "voice\x00", "한글"}
	for _, s := range unsafe {
		if isSafeToken(s) {
			t.Errorf("isSafeToken(%q) = true, want false", s)
		}
	}
}

func FuzzIsSafeToken(f *testing.F) {
	f.Add("af_heart")
	f.Add("")
	f.Add("..")
	f.Add("../etc/passwd")
	f.Add("voice/with/slash")
	f.Add(`voice\with\backslash`)
	f.Add("en-us")
	f.Add("name\x00null")
	f.Add("unicode한글voice")

	f.Fuzz(func(t *testing.T, s string) {
		if len(s) > 200 {
			t.Skip("token too long")
		}
		ok := isSafeToken(s)
		if strings.Contains(s, "..") && ok {
			t.Errorf("token with .. should not be safe: %q", s)
		}
		if strings.ContainsAny(s, "/\\") && ok {
			t.Errorf("token with path separators should not be safe: %q", s)
		}
		if ok != isSafeToken(s) {
			t.Errorf("isSafeToken inconsistent for %q", s)
		}
	})
}
