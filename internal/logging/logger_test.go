package logging

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     Level
		wantError bool
		wantWarn  bool
		wantInfo  bool
		wantDebug bool
	}{
		{LevelError, true, false, false, false},
		{LevelWarn, true, true, false, false},
		{LevelInfo, true, true, true, false},
		{LevelDebug, true, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.level)

			logger.Errorf("error %d", 1)
			logger.Warnf("warn %d", 2)
			logger.Infof("info %d", 3)
			logger.Debugf("debug %d", 4)

			output := buf.String()

			if got := strings.Contains(output, "ERROR error 1"); got != tt.wantError {
				t.Errorf("Error logged: got %v, want %v", got, tt.wantError)
			}
			if got := strings.Contains(output, "WARN warn 2"); got != tt.wantWarn {
				t.Errorf("Warn logged: got %v, want %v", got, tt.wantWarn)
			}
			if got := strings.Contains(output, "INFO info 3"); got != tt.wantInfo {
				t.Errorf("Info logged: got %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(output, "DEBUG debug 4"); got != tt.wantDebug {
				t.Errorf("Debug logged: got %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestDefaultLogger_Namespace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelWarn)

	logger.Warnf(NSWrite+"pwrite EINVAL on fd %d, retrying", 7)

	if !strings.Contains(buf.String(), "WARN [write] pwrite EINVAL on fd 7, retrying") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestDefaultLogger_FatalfCallsHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelError)

	var mu sync.Mutex
	var got string
	logger.SetFatalHandler(func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		got = msg
	})

	logger.Fatalf("disk %s gone", "sda")

	if got != "disk sda gone" {
		t.Errorf("handler message = %q, want %q", got, "disk sda gone")
	}
	if !strings.Contains(buf.String(), "FATAL disk sda gone") {
		t.Errorf("fatal line missing from %q", buf.String())
	}
}

func TestDefaultLogger_FatalfWithoutHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelError)

	logger.Fatalf("no handler")

	if !strings.Contains(buf.String(), "FATAL no handler") {
		t.Errorf("fatal line missing from %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{LevelError, LevelWarn, LevelInfo, LevelDebug} {
		got, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", l.String(), err)
		}
		if got != l {
			t.Errorf("ParseLevel(%q) = %v, want %v", l.String(), got, l)
		}
	}

	for name, want := range map[string]Level{"error": LevelError, "warn": LevelWarn, "info": LevelInfo, "debug": LevelDebug} {
		if got, err := ParseLevel(name); err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v, want %v", name, got, err, want)
		}
	}

	if _, err := ParseLevel("Warn"); err == nil {
		t.Error("ParseLevel should reject mixed case")
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel should reject unknown levels")
	}
}

type nilLogger struct{ DiscardLogger }

func TestIsNil(t *testing.T) {
	if !IsNil(nil) {
		t.Error("IsNil(nil) = false")
	}

	var typed *nilLogger
	if !IsNil(typed) {
		t.Error("IsNil(typed nil) = false")
	}

	if IsNil(Discard) {
		t.Error("IsNil(Discard) = true")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) != Discard {
		t.Error("OrDiscard(nil) should return Discard")
	}

	l := NewLogger(&bytes.Buffer{}, LevelInfo)
	if OrDiscard(l) != l {
		t.Error("OrDiscard should keep a usable logger")
	}
}
