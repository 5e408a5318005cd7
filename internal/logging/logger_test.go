package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLevel(t *testing.T) {
	defer Init("info", true)

	Init("debug", false)
	if got := Logger.GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("level = %v, want debug", got)
	}

	// Unknown and empty levels fall back to info.
	Init("nonsense", false)
	if got := Logger.GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info fallback", got)
	}
	Init("", false)
	if got := Logger.GetLevel(); got != zerolog.InfoLevel {
		t.Fatalf("level = %v, want info fallback", got)
	}
}

func TestPrintfRoutesToGlobalLogger(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	var buf bytes.Buffer
	Logger = zerolog.New(&buf)

	Printf{}.Printf("wrote %d rows", 7)

	out := buf.String()
	if !strings.Contains(out, `"message":"wrote 7 rows"`) {
		t.Fatalf("output = %q, want formatted message", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Fatalf("output = %q, want info level", out)
	}
}
