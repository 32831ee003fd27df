package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigureJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	if err := configure(l, &buf, "debug", "json"); err != nil {
		t.Fatalf("configure: %v", err)
	}
	l.WithField("component", "parser").Debug("skipped line")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	if entry["component"] != "parser" || entry["msg"] != "skipped line" || entry["level"] != "debug" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestConfigureLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	if err := configure(l, &buf, "warn", "text"); err != nil {
		t.Fatalf("configure: %v", err)
	}
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level: %q", buf.String())
	}
	l.Warn("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Errorf("warn should be logged: %q", buf.String())
	}
}

func TestConfigureRejectsUnknown(t *testing.T) {
	l := logrus.New()
	if err := configure(l, &bytes.Buffer{}, "loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := configure(l, &bytes.Buffer{}, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
