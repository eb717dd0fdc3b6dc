package notify

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestForType(t *testing.T) {
	tests := []struct {
		kind string
		want Notifier
	}{
		{"desktop", Desktop{}},
		{"log", Log{}},
		{"none", Nop{}},
		{"bogus", Nop{}},
		{"", Nop{}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			if got := ForType(tt.kind); got != tt.want {
				t.Errorf("ForType(%q) = %T, want %T", tt.kind, got, tt.want)
			}
		})
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	logNotifier := Log{}

	t.Run("RecordingStarted", func(t *testing.T) {
		buf.Reset()
		logNotifier.RecordingStarted()
		if !strings.Contains(buf.String(), "Recording Started") {
			t.Errorf("log output should contain 'Recording Started', got: %s", buf.String())
		}
	})

	t.Run("RecordingEnded", func(t *testing.T) {
		buf.Reset()
		logNotifier.RecordingEnded()
		if !strings.Contains(buf.String(), "Recording Ended") {
			t.Errorf("log output should contain 'Recording Ended', got: %s", buf.String())
		}
	})

	t.Run("Transcribing", func(t *testing.T) {
		buf.Reset()
		logNotifier.Transcribing()
		if !strings.Contains(buf.String(), "Transcribing") {
			t.Errorf("log output should contain 'Transcribing', got: %s", buf.String())
		}
	})

	t.Run("Delivered", func(t *testing.T) {
		buf.Reset()
		logNotifier.Delivered("Pasted into active app.")
		if !strings.Contains(buf.String(), "Pasted into active app.") {
			t.Errorf("log output should contain the detail text, got: %s", buf.String())
		}
	})

	t.Run("Error", func(t *testing.T) {
		buf.Reset()
		logNotifier.Error("test error message")
		output := buf.String()
		if !strings.Contains(output, "Telepathy Error") || !strings.Contains(output, "test error message") {
			t.Errorf("log output should contain error message, got: %s", output)
		}
	})

	t.Run("Notify", func(t *testing.T) {
		buf.Reset()
		logNotifier.Notify("Test Title", "Test Message")
		output := buf.String()
		if !strings.Contains(output, "Test Title") || !strings.Contains(output, "Test Message") {
			t.Errorf("log output should contain title and message, got: %s", output)
		}
	})
}

func TestNopNotifier(t *testing.T) {
	nop := Nop{}

	// All Nop methods should do nothing and not panic
	nop.RecordingStarted()
	nop.RecordingEnded()
	nop.Transcribing()
	nop.Delivered("detail")
	nop.Error("test message")
	nop.Notify("title", "message")
}

func TestNotifierInterface(t *testing.T) {
	notifiers := []Notifier{
		Desktop{},
		Log{},
		Nop{},
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	for _, notifier := range notifiers {
		// Every implementation handles every call without panicking,
		// empty strings included.
		notifier.Error("")
		notifier.Notify("", "")
		notifier.Delivered("")
	}
}
