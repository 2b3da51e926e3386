package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactedAttribute(t *testing.T) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := New(slog.New(h)).With("device", "sim-0")

	l.Debug(context.Background(), "enroll template", Redacted("username"))

	out := buf.String()
	assert.Contains(t, out, `username=`+Placeholder())
	assert.Contains(t, out, "device=sim-0")
	assert.False(t, strings.Contains(out, "alice"))
}

func TestNopDropsRecords(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "ignored", "k", "v")
	l.With("a", 1).Info(context.Background(), "ignored")
}

func TestNewNilUsesDefault(t *testing.T) {
	if New(nil) == nil {
		t.Fatal("New(nil) returned nil")
	}
}
