package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_JSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json")

	logger.WithField("user_id", "u1").Debug("queue built")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["user_id"] != "u1" || entry["msg"] != "queue built" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	logger := New(&bytes.Buffer{}, "loud", "text")
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("expected text formatter, got %T", logger.Formatter)
	}
}
