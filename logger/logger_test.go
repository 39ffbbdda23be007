package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfigureInvalidLevel(t *testing.T) {
	l := Logger()
	if err := l.Configure("nope", "text", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	l := Logger()
	if err := l.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestEntryFields(t *testing.T) {
	l := Logger()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	if err := l.Configure("info", "json", "", 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
	l.SetOutput(&buf)

	l.WithComponent("test").WithFields(Fields{"exchange": "coinbase"}).Info("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("missing component field: %s", out)
	}
	if !strings.Contains(out, `"exchange":"coinbase"`) {
		t.Errorf("missing exchange field: %s", out)
	}
}
