package slogpretty_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Insanely-69/CelestialSword2/internal/lib/logger/handlers/slogpretty"
)

func TestPrettyHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	}
	handler := opts.NewPrettyHandler(&buf)

	at := time.Date(2026, 8, 25, 12, 34, 56, 789_000_000, time.UTC)
	record := slog.NewRecord(at, slog.LevelInfo, "leaderboard updated", 0)
	record.AddAttrs(slog.String("guild", "guild1"))

	if err := handler.Handle(context.Background(), record); err != nil {
		t.Fatalf("failed to handle record: %v", err)
	}

	out := buf.String()
	// Hours, minutes and seconds must each render their own component.
	if !strings.Contains(out, "[12:34:56.789]") {
		t.Errorf("expected timestamp [12:34:56.789] in output, got %q", out)
	}
	if !strings.Contains(out, "leaderboard updated") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "guild1") {
		t.Errorf("expected attribute value in output, got %q", out)
	}
}
