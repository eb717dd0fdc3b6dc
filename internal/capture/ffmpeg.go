package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"
)

// defaultMIMEType is used when none of the preferred formats are
// supported by the local encoder.
const defaultMIMEType = "video/webm"

// killGrace is how long a stopped encoder gets to finalize the
// container before it is killed outright.
const killGrace = 3 * time.Second

var mimeToMuxer = map[string]string{
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"video/quicktime": "mov",
}

type formatProbe func(ctx context.Context) (map[string]bool, error)

// CheckDeviceAvailable verifies the camera node exists and the encoder
// binary is installed.
func CheckDeviceAvailable(ctx context.Context, device string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found: %w (install ffmpeg)", err)
	}
	if _, err := os.Stat(device); err != nil {
		return fmt.Errorf("camera %s: %w", device, err)
	}
	return nil
}

// ffmpegMuxers asks ffmpeg which container muxers it was built with and
// maps them back to MIME types.
func ffmpegMuxers(ctx context.Context) (map[string]bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, "ffmpeg", "-hide_banner", "-muxers").Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg -muxers: %w", err)
	}

	available := make(map[string]bool)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		// Lines look like " E  webm  WebM"; the muxer name is the
		// second field.
		if len(fields) < 2 || !strings.Contains(fields[0], "E") {
			continue
		}
		available[fields[1]] = true
	}

	supported := make(map[string]bool, len(mimeToMuxer))
	for mime, muxer := range mimeToMuxer {
		if available[muxer] {
			supported[mime] = true
		}
	}
	return supported, nil
}

func buildFFmpegArgs(cfg Config, mimeType string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-framerate", fmt.Sprintf("%d", cfg.Framerate),
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		args = append(args, "-video_size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height))
	}
	args = append(args, "-i", cfg.Device)

	muxer := mimeToMuxer[mimeType]
	if muxer == "" {
		muxer = mimeToMuxer[defaultMIMEType]
	}
	switch muxer {
	case "mp4", "mov":
		// Fragmented output so the container is valid on a pipe.
		args = append(args, "-c:v", "libx264", "-preset", "ultrafast",
			"-movflags", "frag_keyframe+empty_moov")
	default:
		args = append(args, "-c:v", "libvpx", "-deadline", "realtime")
	}
	args = append(args, "-an", "-f", muxer, "pipe:1")
	return args
}

// ffmpegRunner launches one encoder process for a session. The returned
// stream yields the encoded container bytes; Close reaps the process
// and reports an encoder failure unless the exit was requested.
func ffmpegRunner(ctx context.Context, cfg Config, mimeType string) (io.ReadCloser, func(), error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", buildFFmpegArgs(cfg, mimeType)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	// Log stderr lines to aid diagnostics.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("capture stderr: %s", scanner.Text())
		}
	}()

	var stopRequested atomic.Bool
	stop := func() {
		stopRequested.Store(true)
		// SIGINT lets ffmpeg flush and finalize the container.
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			_ = cmd.Process.Kill()
			return
		}
		time.AfterFunc(killGrace, func() {
			_ = cmd.Process.Kill()
		})
	}

	return &encoderStream{
		Reader:        stdout,
		wait:          cmd.Wait,
		stopRequested: &stopRequested,
	}, stop, nil
}

type encoderStream struct {
	io.Reader
	wait          func() error
	stopRequested *atomic.Bool
}

func (e *encoderStream) Close() error {
	err := e.wait()
	if err != nil && e.stopRequested.Load() {
		// ffmpeg exits non-zero on SIGINT even after a clean flush.
		return nil
	}
	return err
}
