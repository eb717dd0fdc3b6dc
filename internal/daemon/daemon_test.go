package daemon

import (
	"strings"
	"testing"
	"time"

	"github.com/telepathyhq/telepathy/internal/bus"
	"github.com/telepathyhq/telepathy/internal/notify"
)

// startTestDaemon runs a daemon against isolated cache/config dirs
// and waits until its socket answers.
func startTestDaemon(t *testing.T) *Daemon {
	t.Helper()

	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	d, err := New(WithNotifier(notify.Nop{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run()
	}()

	maxAttempts := 50
	for i := range maxAttempts {
		if _, err := bus.SendCommand(bus.CmdStatus); err == nil {
			break // daemon is ready
		}
		if i == maxAttempts-1 {
			t.Fatal("daemon failed to start within timeout")
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Cleanup(func() {
		bus.SendCommand(bus.CmdQuit)
		select {
		case <-errCh:
		case <-time.After(3 * time.Second):
			t.Error("daemon did not exit within timeout")
		}
	})

	return d
}

func TestCommandRoundTrip(t *testing.T) {
	startTestDaemon(t)

	if out, err := bus.SendCommand(bus.CmdVersion); err != nil {
		t.Fatalf("version failed: %v", err)
	} else if out != "STATUS proto="+bus.ProtoVer+"\n" {
		t.Fatalf("unexpected version response: %s", out)
	}

	out, err := bus.SendCommand(bus.CmdStatus)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.HasPrefix(out, "STATUS state=idle") {
		t.Fatalf("unexpected status response: %s", out)
	}
}

func TestPressWithBackendDown(t *testing.T) {
	d := startTestDaemon(t)

	// No backend is listening on the default port, so the monitor
	// reports it down and a press lands in waiting, never recording.
	if out, err := bus.SendCommand(bus.CmdPress); err != nil {
		t.Fatalf("press failed: %v", err)
	} else if out != "OK pressed\n" {
		t.Fatalf("unexpected press response: %s", out)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if d.Status().State == "waiting" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := d.Status().State; got != "waiting" {
		t.Fatalf("state = %s, want waiting", got)
	}

	if out, err := bus.SendCommand(bus.CmdRelease); err != nil {
		t.Fatalf("release failed: %v", err)
	} else if out != "OK released\n" {
		t.Fatalf("unexpected release response: %s", out)
	}

	// The waiting state collapses back to idle on its own.
	deadline = time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if !d.Status().Visible() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("overlay never cleared after release")
}

func TestUnknownCommand(t *testing.T) {
	startTestDaemon(t)

	out, err := bus.SendCommand('x')
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if out != "ERR unknown='x'\n" {
		t.Fatalf("unexpected response: %s", out)
	}
}
