package notify

import (
	"fmt"
	"log"
	"os/exec"
)

type Notifier interface {
	RecordingStarted()
	RecordingEnded()
	Transcribing()
	Delivered(detail string)
	Error(msg string)
	Notify(title, message string)
}

// ForType returns the notifier matching a configured type string.
// Unknown types fall back to Nop.
func ForType(kind string) Notifier {
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

type Desktop struct{}

func (Desktop) RecordingStarted() {
	Desktop{}.Notify("Telepathy", "Recording started")
}

func (Desktop) RecordingEnded() {
	Desktop{}.Notify("Telepathy", "Recording ended")
}

func (Desktop) Transcribing() {
	Desktop{}.Notify("Telepathy", "Transcribing...")
}

func (Desktop) Delivered(detail string) {
	Desktop{}.Notify("Telepathy", detail)
}

func (Desktop) Error(msg string) {
	cmd := exec.Command("notify-send", "-a", "Telepathy", "-u", "critical", msg)
	if err := cmd.Run(); err != nil {
		log.Printf("notify: failed to send error notification: %v", err)
	}
}

func (Desktop) Notify(title, message string) {
	cmd := exec.Command("notify-send", "-a", "Telepathy", title, message)
	if err := cmd.Run(); err != nil {
		log.Printf("notify: failed to send notification: %v", err)
	}
}

// Log writes notifications to the process log instead of the desktop.
type Log struct{}

func (Log) RecordingStarted()       { log.Printf("notify: Telepathy: Recording Started") }
func (Log) RecordingEnded()         { log.Printf("notify: Telepathy: Recording Ended") }
func (Log) Transcribing()           { log.Printf("notify: Telepathy: Transcribing") }
func (Log) Delivered(detail string) { log.Printf("notify: Telepathy: %s", detail) }

func (Log) Error(msg string) {
	log.Printf("notify: Telepathy Error: %s", msg)
}

func (Log) Notify(title, message string) {
	log.Printf("notify: %s", fmt.Sprintf("%s: %s", title, message))
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingStarted()            {}
func (Nop) RecordingEnded()              {}
func (Nop) Transcribing()                {}
func (Nop) Delivered(detail string)      {}
func (Nop) Error(msg string)             {}
func (Nop) Notify(title, message string) {}
