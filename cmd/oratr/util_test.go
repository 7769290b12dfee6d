package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{2 << 20, "2.0 MB"},
		{1 << 30, "1.0 GB"},
		{5368709120, "5.0 GB"},
	}
	for _, tt := range tests {
		if got := humanBytes(tt.n); got != tt.want {
			t.Errorf("humanBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestOneLine(t *testing.T) {
	if got := oneLine("  ready\n\tto   go \n"); got != "ready to go" {
		t.Errorf("oneLine = %q", got)
	}
	long := strings.Repeat("x", 200)
	if got := oneLine(long); len(got) != 123 || !strings.HasSuffix(got, "...") {
		t.Errorf("long input not truncated: %d chars", len(got))
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	printJSON(&buf, map[string]int{"pid": 42})
	if !strings.Contains(buf.String(), `"pid": 42`) {
		t.Errorf("output = %q", buf.String())
	}
}
