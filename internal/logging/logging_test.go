package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "info", "json"), "migration")
	log.Info().Int("tasks", 3).Msg("imported")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["component"] != "migration" || entry["message"] != "imported" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestGormWriterLogsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	w := GormWriter{Log: New(&buf, "warn", "json")}
	w.Printf("slow sql %s", "SELECT 1")

	if !bytes.Contains(buf.Bytes(), []byte(`"slow sql SELECT 1"`)) {
		t.Errorf("gorm message not forwarded: %s", buf.String())
	}
}
