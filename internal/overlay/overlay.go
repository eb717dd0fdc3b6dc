// Package overlay is the orchestrator: it consumes hotkey edges,
// health state, and capture/transcription results, and drives the
// visible status through a finite state machine. All state lives in
// one goroutine; hotkey callbacks and I/O completions only post
// events onto its channel.
package overlay

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/telepathyhq/telepathy/internal/capture"
	"github.com/telepathyhq/telepathy/internal/deliver"
	"github.com/telepathyhq/telepathy/internal/health"
)

type State string

const (
	StateIdle       State = "idle"
	StateWaiting    State = "waiting"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
	StatePasted     State = "pasted"
	StateError      State = "error"
)

// Detail strings shown in the Pasted state. Stable wording.
const (
	DetailPasted = "Pasted into active app."
	DetailCopied = "Copied to clipboard."
)

// Status is a snapshot of what the overlay shows. Visible means any
// state other than Idle.
type Status struct {
	State  State
	Detail string
}

func (s Status) Visible() bool { return s.State != StateIdle }

// Session is the slice of a capture session the machine needs.
type Session interface {
	Stop()
	Done() <-chan struct{}
	Wait(ctx context.Context) (capture.Clip, error)
}

// Transcriber turns a clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip capture.Clip) (string, error)
}

// TextDeliverer pushes text to the user's session.
type TextDeliverer interface {
	Deliver(ctx context.Context, text string) (deliver.Outcome, error)
}

// HealthSource reports the backend's current state. Read at press
// time only, so a backend degrading mid-hold never interrupts a
// recording in progress.
type HealthSource interface {
	State() health.State
}

type Config struct {
	HotkeyLabel     string
	PastedHide      time.Duration // success lingers longest
	ErrorHide       time.Duration
	WaitingHide     time.Duration
	WaitingCollapse time.Duration // release with no session
}

func DefaultConfig() Config {
	return Config{
		HotkeyLabel:     "CommandOrControl+Shift+Space",
		PastedHide:      2500 * time.Millisecond,
		ErrorHide:       1800 * time.Millisecond,
		WaitingHide:     1800 * time.Millisecond,
		WaitingCollapse: 150 * time.Millisecond,
	}
}

// Listener observes state changes, for notifications and status
// output. Called from the machine goroutine; must not block.
type Listener func(Status)

type event interface{ isEvent() }

type pressEvent struct{}
type releaseEvent struct{}

// resultEvent carries the outcome of the stop/transcribe/deliver
// pipeline spawned on release.
type resultEvent struct {
	text    string
	outcome deliver.Outcome
	err     error
}

// timerEvent is an auto-hide firing. gen guards against a stale
// timer dismissing a newer state.
type timerEvent struct {
	gen uint64
}

func (pressEvent) isEvent()   {}
func (releaseEvent) isEvent() {}
func (resultEvent) isEvent()  {}
func (timerEvent) isEvent()   {}

// Machine is the state machine. It is the sole owner of the capture
// session reference and the only writer of the overlay status.
type Machine struct {
	config      Config
	startFn     func(ctx context.Context) (Session, error)
	transcriber Transcriber
	deliverer   TextDeliverer
	healthSrc   HealthSource
	listener    Listener

	events chan event
	status chan chan Status

	// Owned by the run goroutine.
	state     State
	detail    string
	session   Session
	inflight  bool
	hideGen   uint64
	hideTimer *time.Timer
}

func NewMachine(
	cfg Config,
	start func(ctx context.Context) (Session, error),
	transcriber Transcriber,
	deliverer TextDeliverer,
	healthSrc HealthSource,
	opts ...Option,
) *Machine {
	m := &Machine{
		config:      cfg,
		startFn:     start,
		transcriber: transcriber,
		deliverer:   deliverer,
		healthSrc:   healthSrc,
		events:      make(chan event, 16),
		status:      make(chan chan Status),
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type Option func(*Machine)

// WithListener registers the state change observer.
func WithListener(l Listener) Option {
	return func(m *Machine) { m.listener = l }
}

// Press posts a hotkey press edge. Never blocks; a flooded queue
// drops the edge, which a later press recovers from.
func (m *Machine) Press() { m.post(pressEvent{}) }

// Release posts a hotkey release edge.
func (m *Machine) Release() { m.post(releaseEvent{}) }

func (m *Machine) post(e event) {
	select {
	case m.events <- e:
	default:
		log.Printf("overlay: event queue full, dropping %T", e)
	}
}

// Status returns the current snapshot, answered by the run goroutine
// so readers never observe a half-applied transition.
func (m *Machine) Status(ctx context.Context) Status {
	reply := make(chan Status, 1)
	select {
	case m.status <- reply:
		return <-reply
	case <-ctx.Done():
		return Status{State: StateIdle}
	}
}

// Run processes events until ctx is cancelled. Exactly one Run per
// machine.
func (m *Machine) Run(ctx context.Context) {
	log.Printf("overlay: state machine running (hotkey %s)", m.config.HotkeyLabel)
	defer m.shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case reply := <-m.status:
			reply <- Status{State: m.state, Detail: m.detail}
		case e := <-m.events:
			switch ev := e.(type) {
			case pressEvent:
				m.handlePress(ctx)
			case releaseEvent:
				m.handleRelease(ctx)
			case resultEvent:
				m.handleResult(ev)
			case timerEvent:
				m.handleTimer(ev)
			}
		}
	}
}

func (m *Machine) shutdown() {
	if m.hideTimer != nil {
		m.hideTimer.Stop()
		m.hideTimer = nil
	}
	if m.session != nil {
		m.session.Stop()
		select {
		case <-m.session.Done():
		case <-time.After(2 * time.Second):
			log.Printf("overlay: session teardown timed out")
		}
		m.session = nil
	}
	log.Printf("overlay: state machine stopped")
}

func (m *Machine) handlePress(ctx context.Context) {
	// No re-entrant recording.
	if m.state == StateRecording || m.state == StateProcessing {
		return
	}
	if m.session != nil || m.inflight {
		return
	}

	switch backend := m.healthSrc.State(); backend {
	case health.StateReady:
		// proceed
	case health.StateLoading:
		m.setState(StateWaiting, "Model loading...")
		m.armHide(m.config.WaitingHide)
		return
	case health.StateOffline:
		m.setState(StateWaiting, "Backend offline.")
		m.armHide(m.config.WaitingHide)
		return
	default:
		m.setState(StateWaiting, "Backend not ready.")
		m.armHide(m.config.WaitingHide)
		return
	}

	// Start synchronously so a fast release always finds the session.
	session, err := m.startFn(ctx)
	if err != nil {
		log.Printf("overlay: capture start failed: %v", err)
		m.setState(StateError, fmt.Sprintf("Camera error: %v", err))
		m.armHide(m.config.ErrorHide)
		return
	}

	m.session = session
	m.setState(StateRecording, "Recording... release to stop.")
	m.cancelHide()
}

func (m *Machine) handleRelease(ctx context.Context) {
	if m.session == nil {
		// Release without a matching press (hotkey edge race):
		// collapse quietly instead of flashing an error.
		if m.state == StateWaiting {
			m.armHide(m.config.WaitingCollapse)
		}
		return
	}

	session := m.session
	m.session = nil
	m.inflight = true

	session.Stop()
	m.setState(StateProcessing, "Transcribing...")
	m.cancelHide()

	go func() {
		clip, err := session.Wait(ctx)
		if err != nil {
			m.events <- resultEvent{err: fmt.Errorf("capture: %w", err)}
			return
		}

		text, err := m.transcriber.Transcribe(ctx, clip)
		if err != nil {
			m.events <- resultEvent{err: err}
			return
		}

		outcome, err := m.deliverer.Deliver(ctx, text)
		if err != nil {
			m.events <- resultEvent{err: fmt.Errorf("deliver: %w", err)}
			return
		}

		m.events <- resultEvent{text: text, outcome: outcome}
	}()
}

func (m *Machine) handleResult(ev resultEvent) {
	m.inflight = false

	if ev.err != nil {
		log.Printf("overlay: pipeline failed: %v", ev.err)
		m.setState(StateError, ev.err.Error())
		m.armHide(m.config.ErrorHide)
		return
	}

	detail := DetailCopied
	if ev.outcome.Delivered {
		detail = DetailPasted
	}
	m.setState(StatePasted, detail)
	m.armHide(m.config.PastedHide)
}

func (m *Machine) handleTimer(ev timerEvent) {
	if ev.gen != m.hideGen {
		// A newer state re-armed or cancelled; stale fire.
		return
	}
	m.setState(StateIdle, "")
}

// armHide schedules the auto-hide, cancelling any prior timer so at
// most one Idle transition fires per state entry.
func (m *Machine) armHide(delay time.Duration) {
	m.cancelHide()
	gen := m.hideGen
	m.hideTimer = time.AfterFunc(delay, func() {
		m.post(timerEvent{gen: gen})
	})
}

func (m *Machine) cancelHide() {
	m.hideGen++
	if m.hideTimer != nil {
		m.hideTimer.Stop()
		m.hideTimer = nil
	}
}

func (m *Machine) setState(state State, detail string) {
	if m.state == state && m.detail == detail {
		return
	}
	m.state = state
	m.detail = detail

	log.Printf("overlay: -> %s %q", state, detail)
	if m.listener != nil {
		m.listener(Status{State: state, Detail: detail})
	}
}
