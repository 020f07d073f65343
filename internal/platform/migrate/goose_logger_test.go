package migrate

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestGooseLoggerWritesThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	logger := gooseSlogLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	logger.Printf("OK   %s (%s)\n", "00001_create_login_events.sql", "2ms")

	out := buf.String()
	if !strings.Contains(out, "00001_create_login_events.sql") || !strings.Contains(out, "component=goose") {
		t.Fatalf("unexpected log output %q", out)
	}
}

func TestGooseLoggerToleratesNilLogger(t *testing.T) {
	gooseSlogLogger{}.Printf("no-op %d", 1)
}
