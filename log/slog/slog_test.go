package slog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/unkn0wn-root/parkcache"
)

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	if err != nil {
		t.Fatal(err)
	}
	l.Info("hidden", nil)
	l.Error("invalidate failed", parkcache.Fields{"key": "cachedBookings"})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked at warn level: %s", out)
	}
	if !strings.Contains(out, "invalidate failed") || !strings.Contains(out, "key=cachedBookings") {
		t.Fatalf("unexpected output %s", out)
	}
	if _, err := New(&buf, "chatty"); err == nil {
		t.Fatalf("expected bad level error")
	}
}
