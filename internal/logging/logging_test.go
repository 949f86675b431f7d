package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestVerboseGatesDebug(t *testing.T) {
	var quiet, verbose bytes.Buffer

	l := NewWithWriter(false, &quiet)
	l.Debug("hidden")
	l.Info("shown")
	l.Sync()

	if strings.Contains(quiet.String(), "hidden") {
		t.Error("debug entry emitted without verbose")
	}
	if !strings.Contains(quiet.String(), "shown") {
		t.Error("info entry missing")
	}

	lv := NewWithWriter(true, &verbose)
	lv.Debug("visible")
	lv.Sync()
	if !strings.Contains(verbose.String(), "visible") {
		t.Error("debug entry missing with verbose")
	}
}

func TestEveryLineCarriesInvocationID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(false, &buf)
	l.Info("first")
	l.Info("second")
	l.Sync()

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if !strings.Contains(line, "invocation_id") {
			t.Errorf("line missing invocation id: %q", line)
		}
	}
}

func TestTwoLoggersGetDistinctIDs(t *testing.T) {
	var a, b bytes.Buffer
	NewWithWriter(false, &a).Info("x")
	NewWithWriter(false, &b).Info("x")

	if a.String() == b.String() {
		t.Error("two invocations produced identical log identity")
	}
}
