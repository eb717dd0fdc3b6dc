package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

func okDeviceCheck(ctx context.Context, device string) error { return nil }

func staticProbe(supported map[string]bool) formatProbe {
	return func(ctx context.Context) (map[string]bool, error) {
		return supported, nil
	}
}

// fakeStream feeds canned bytes until stop is requested, then ends the
// stream, optionally with an error from Close.
type fakeStream struct {
	data     []byte
	read     bool
	stopped  chan struct{}
	closeErr error
}

func (f *fakeStream) Read(p []byte) (int, error) {
	if !f.read {
		f.read = true
		n := copy(p, f.data)
		return n, nil
	}
	<-f.stopped
	return 0, io.EOF
}

func (f *fakeStream) Close() error { return f.closeErr }

func fakeRunner(data []byte, closeErr error) runner {
	return func(ctx context.Context, cfg Config, mimeType string) (io.ReadCloser, func(), error) {
		stream := &fakeStream{data: data, stopped: make(chan struct{})}
		stream.closeErr = closeErr
		stop := func() { close(stream.stopped) }
		return stream, stop, nil
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

func TestStartAndStop(t *testing.T) {
	r := NewRecorder(testConfig(),
		WithRunner(fakeRunner([]byte("encoded-bytes"), nil)),
		WithFormatProbe(staticProbe(map[string]bool{"video/mp4": true})),
		WithDeviceCheck(okDeviceCheck),
	)

	session, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !r.IsRecording() {
		t.Error("recorder should report recording after Start")
	}

	session.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	clip, err := session.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if string(clip.Data) != "encoded-bytes" {
		t.Errorf("clip data = %q", clip.Data)
	}
	if clip.MIMEType != "video/mp4" {
		t.Errorf("clip MIME = %q, want video/mp4", clip.MIMEType)
	}
	if clip.Width != 640 || clip.Height != 480 {
		t.Errorf("clip dimensions = %dx%d", clip.Width, clip.Height)
	}
	if r.IsRecording() {
		t.Error("recorder should be released after the session resolves")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	stopCalls := 0
	run := func(ctx context.Context, cfg Config, mimeType string) (io.ReadCloser, func(), error) {
		stream := &fakeStream{data: []byte("x"), stopped: make(chan struct{})}
		stop := func() {
			stopCalls++
			close(stream.stopped)
		}
		return stream, stop, nil
	}

	r := NewRecorder(testConfig(),
		WithRunner(run),
		WithFormatProbe(staticProbe(nil)),
		WithDeviceCheck(okDeviceCheck),
	)

	session, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	session.Stop()
	session.Stop()
	session.Stop()

	if stopCalls != 1 {
		t.Errorf("stop invoked %d times, want 1", stopCalls)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Every waiter resolves against the same result.
	first, err1 := session.Wait(ctx)
	second, err2 := session.Wait(ctx)
	if err1 != nil || err2 != nil {
		t.Fatalf("Wait errors: %v, %v", err1, err2)
	}
	if string(first.Data) != string(second.Data) {
		t.Error("repeated waits should observe the same clip")
	}
}

func TestSecondSessionRefused(t *testing.T) {
	r := NewRecorder(testConfig(),
		WithRunner(fakeRunner([]byte("x"), nil)),
		WithFormatProbe(staticProbe(nil)),
		WithDeviceCheck(okDeviceCheck),
	)

	session, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := r.Start(context.Background()); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start error = %v, want ErrSessionActive", err)
	}

	session.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := session.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	// Once resolved the recorder accepts a new session.
	session2, err := r.Start(context.Background())
	if err != nil {
		t.Errorf("Start after release failed: %v", err)
	} else {
		session2.Stop()
		_, _ = session2.Wait(ctx)
	}
}

func TestDeviceMissingFailsFast(t *testing.T) {
	r := NewRecorder(testConfig(),
		WithRunner(fakeRunner([]byte("x"), nil)),
		WithFormatProbe(staticProbe(nil)),
		WithDeviceCheck(func(ctx context.Context, device string) error {
			return fmt.Errorf("camera %s: no such device", device)
		}),
	)

	if _, err := r.Start(context.Background()); !errors.Is(err, ErrNoDevice) {
		t.Errorf("Start error = %v, want ErrNoDevice", err)
	}
	if r.IsRecording() {
		t.Error("recorder should not be held after a failed Start")
	}
}

func TestEmptyClipIsFailure(t *testing.T) {
	r := NewRecorder(testConfig(),
		WithRunner(fakeRunner(nil, nil)),
		WithFormatProbe(staticProbe(nil)),
		WithDeviceCheck(okDeviceCheck),
	)

	session, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	session.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := session.Wait(ctx); !errors.Is(err, ErrEmptyClip) {
		t.Errorf("Wait error = %v, want ErrEmptyClip", err)
	}
}

func TestEncoderErrorPropagates(t *testing.T) {
	r := NewRecorder(testConfig(),
		WithRunner(fakeRunner([]byte("partial"), errors.New("encoder crashed"))),
		WithFormatProbe(staticProbe(nil)),
		WithDeviceCheck(okDeviceCheck),
	)

	session, err := r.Start(context.Background())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	session.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := session.Wait(ctx); err == nil {
		t.Error("Wait should surface the encoder failure")
	}
}

func TestFormatSelection(t *testing.T) {
	tests := []struct {
		name      string
		preferred []string
		supported map[string]bool
		want      string
	}{
		{
			name:      "first preferred supported",
			preferred: []string{"video/mp4", "video/webm"},
			supported: map[string]bool{"video/mp4": true, "video/webm": true},
			want:      "video/mp4",
		},
		{
			name:      "falls through to second",
			preferred: []string{"video/mp4", "video/webm"},
			supported: map[string]bool{"video/webm": true},
			want:      "video/webm",
		},
		{
			name:      "none supported uses default",
			preferred: []string{"video/mp4"},
			supported: map[string]bool{},
			want:      defaultMIMEType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.PreferredFormats = tt.preferred
			r := NewRecorder(cfg,
				WithFormatProbe(staticProbe(tt.supported)),
				WithDeviceCheck(okDeviceCheck),
			)

			got := r.selectFormat(context.Background())
			if got != tt.want {
				t.Errorf("selectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty device", func(c *Config) { c.Device = "" }, true},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			r := NewRecorder(cfg)
			err := r.validateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	cfg := testConfig()
	args := buildFFmpegArgs(cfg, "video/mp4")

	joined := ""
	for _, a := range args {
		joined += a + " "
	}

	for _, want := range []string{"-f v4l2", "-video_size 640x480", "-i /dev/video0", "-f mp4", "pipe:1"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q in %q", want, joined)
		}
	}
}
