package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrNoDevice means the configured camera is not attached or the
	// encoder binary is missing. Fails fast at start time.
	ErrNoDevice = errors.New("capture device not available")

	// ErrSessionActive means a capture session is already open against
	// the camera stream.
	ErrSessionActive = errors.New("capture session already active")

	// ErrEmptyClip means the session finished without producing any
	// encoded bytes. An empty clip is a failure, not an empty success.
	ErrEmptyClip = errors.New("capture produced no data")
)

// Clip is one finished, immutable encoded video capture.
type Clip struct {
	Data     []byte
	MIMEType string
	Width    int // 0 when unknown
	Height   int // 0 when unknown
}

type Config struct {
	Device           string
	Width            int
	Height           int
	Framerate        int
	PreferredFormats []string
	Timeout          time.Duration
}

func DefaultConfig() Config {
	return Config{
		Device:           "/dev/video0",
		Framerate:        25,
		PreferredFormats: []string{"video/mp4", "video/webm", "video/quicktime"},
		Timeout:          5 * time.Minute,
	}
}

// runner starts the underlying encoder process for one session and
// returns a stream of encoded bytes plus a stop function that asks the
// encoder to finalize. The stream ends (EOF) once the encoder exits.
type runner func(ctx context.Context, cfg Config, mimeType string) (io.ReadCloser, func(), error)

// Recorder owns the camera stream. At most one Session may be open at a
// time; Start enforces this structurally.
type Recorder struct {
	config Config

	run         runner
	probe       formatProbe
	checkDevice func(ctx context.Context, device string) error
	active      atomic.Bool
}

type Option func(*Recorder)

// WithRunner replaces the encoder process launcher. Used by tests.
func WithRunner(r runner) Option {
	return func(rec *Recorder) { rec.run = r }
}

// WithFormatProbe replaces the encoder capability probe. Used by tests.
func WithFormatProbe(p formatProbe) Option {
	return func(rec *Recorder) { rec.probe = p }
}

// WithDeviceCheck replaces the camera availability check. Used by tests.
func WithDeviceCheck(check func(ctx context.Context, device string) error) Option {
	return func(rec *Recorder) { rec.checkDevice = check }
}

func NewRecorder(config Config, opts ...Option) *Recorder {
	r := &Recorder{
		config:      config,
		run:         ffmpegRunner,
		probe:       ffmpegMuxers,
		checkDevice: CheckDeviceAvailable,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) IsRecording() bool {
	return r.active.Load()
}

// Start opens a capture session. It fails fast when the device is not
// attached, and refuses to open a second session while one is live.
func (r *Recorder) Start(ctx context.Context) (*Session, error) {
	if err := r.validateConfig(); err != nil {
		return nil, err
	}

	if !r.active.CompareAndSwap(false, true) {
		return nil, ErrSessionActive
	}

	if err := r.checkDevice(ctx, r.config.Device); err != nil {
		r.active.Store(false)
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	mimeType := r.selectFormat(ctx)

	sessionCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	stream, stop, err := r.run(sessionCtx, r.config, mimeType)
	if err != nil {
		cancel()
		r.active.Store(false)
		return nil, fmt.Errorf("start encoder: %w", err)
	}

	s := &Session{
		mimeType: mimeType,
		width:    r.config.Width,
		height:   r.config.Height,
		stop:     stop,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go s.collect(stream, func() { r.active.Store(false) })

	log.Printf("capture: session started (device=%s format=%s)", r.config.Device, mimeType)
	return s, nil
}

// selectFormat probes the encoder for the first supported preferred
// format, falling back to the environment default when none match.
func (r *Recorder) selectFormat(ctx context.Context) string {
	supported, err := r.probe(ctx)
	if err != nil {
		log.Printf("capture: format probe failed, using default: %v", err)
		return defaultMIMEType
	}
	for _, mime := range r.config.PreferredFormats {
		if supported[mime] {
			return mime
		}
	}
	return defaultMIMEType
}

func (r *Recorder) validateConfig() error {
	if r.config.Device == "" {
		return fmt.Errorf("invalid Device: empty")
	}
	if r.config.Framerate <= 0 {
		return fmt.Errorf("invalid Framerate: %d", r.config.Framerate)
	}
	if r.config.Timeout <= 0 {
		return fmt.Errorf("invalid Timeout: %v", r.config.Timeout)
	}
	return nil
}

// Session is one in-flight capture. Created on hotkey press, destroyed
// after its clip is consumed or on error.
type Session struct {
	mimeType string
	width    int
	height   int

	stop     func()
	cancel   context.CancelFunc
	stopOnce sync.Once

	done chan struct{}
	clip Clip
	err  error
}

// Stop asks the encoder to finalize the clip. Calling Stop on an
// already-stopping session is a no-op; every caller observes the same
// pending result through Wait.
func (s *Session) Stop() {
	s.stopOnce.Do(s.stop)
}

// Done is closed once the session has fully resolved.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session resolves and returns the finished clip
// or the failure that ended it.
func (s *Session) Wait(ctx context.Context) (Clip, error) {
	select {
	case <-ctx.Done():
		return Clip{}, ctx.Err()
	case <-s.done:
		return s.clip, s.err
	}
}

func (s *Session) collect(stream io.ReadCloser, release func()) {
	defer func() {
		s.cancel()
		release()
		close(s.done)
	}()

	var buf bytes.Buffer
	_, readErr := io.Copy(&buf, stream)
	closeErr := stream.Close()

	if readErr != nil && !errors.Is(readErr, io.EOF) {
		s.err = fmt.Errorf("encoder stream: %w", readErr)
		log.Printf("capture: %v", s.err)
		return
	}
	if closeErr != nil {
		s.err = fmt.Errorf("encoder exit: %w", closeErr)
		log.Printf("capture: %v", s.err)
		return
	}
	if buf.Len() == 0 {
		s.err = ErrEmptyClip
		log.Printf("capture: session ended with empty clip")
		return
	}

	s.clip = Clip{
		Data:     buf.Bytes(),
		MIMEType: s.mimeType,
		Width:    s.width,
		Height:   s.height,
	}
	log.Printf("capture: clip finalized (%d bytes, %s)", buf.Len(), s.mimeType)
}
