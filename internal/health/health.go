// Package health polls the inference backend's health endpoint and
// tracks readiness so the rest of the daemon can gate work on it.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

type State string

const (
	StateChecking State = "checking"
	StateReady    State = "ready"
	StateLoading  State = "loading"
	StateOffline  State = "offline"
	StateError    State = "error"
)

// Ready reports whether the backend can accept transcription work.
func (s State) Ready() bool { return s == StateReady }

type statusBody struct {
	Status string `json:"status"`
	Ready  *bool  `json:"ready"`
	Detail string `json:"detail"`
}

// Listener receives state transitions. Called from the monitor
// goroutine, so it must not block.
type Listener func(old, new State)

type Monitor struct {
	baseURL  string
	interval time.Duration
	client   *http.Client

	mu       sync.Mutex
	state    State
	listener Listener
	timer    *time.Timer
	cancel   context.CancelFunc
	running  bool
}

type Option func(*Monitor)

// WithHTTPClient overrides the probe client.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Monitor) { m.client = c }
}

func NewMonitor(baseURL string, interval time.Duration, opts ...Option) *Monitor {
	m := &Monitor{
		baseURL:  strings.TrimRight(baseURL, "/"),
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		state:    StateChecking,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChange registers the transition listener. Must be called before Start.
func (m *Monitor) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// State returns the last observed backend state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins polling. The first probe runs immediately; each
// following probe is scheduled only after the previous one resolves,
// so a slow backend never stacks requests.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	log.Printf("health: monitoring %s every %v", m.baseURL, m.interval)
	go m.probe(ctx)
}

// Stop halts polling. The state keeps its last value.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	log.Printf("health: monitor stopped")
}

// CheckOnce performs a single probe and returns the resulting state
// without scheduling a follow-up. Used by the doctor command.
func (m *Monitor) CheckOnce(ctx context.Context) State {
	state := m.classify(ctx)
	m.transition(state)
	return state
}

func (m *Monitor) probe(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	m.transition(m.classify(ctx))

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running || ctx.Err() != nil {
		return
	}
	m.timer = time.AfterFunc(m.interval, func() { m.probe(ctx) })
}

func (m *Monitor) classify(ctx context.Context) State {
	reqCtx, cancel := context.WithTimeout(ctx, m.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, m.baseURL+"/health", nil)
	if err != nil {
		return StateError
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := m.client.Do(req)
	if err != nil {
		return StateOffline
	}
	defer resp.Body.Close()

	var body statusBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(data, &body)

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return StateLoading
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return StateError
	case strings.EqualFold(body.Status, "loading"):
		return StateLoading
	case body.Ready != nil && !*body.Ready:
		// An explicit negative readiness flag outranks status text.
		return StateLoading
	case strings.EqualFold(body.Status, "ok"), body.Ready != nil && *body.Ready:
		return StateReady
	default:
		// 2xx with an unrecognized body still counts as up.
		return StateReady
	}
}

func (m *Monitor) transition(next State) {
	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	listener := m.listener
	m.mu.Unlock()

	log.Printf("health: backend %s -> %s", prev, next)
	if listener != nil {
		listener(prev, next)
	}
}

// Describe renders a one-line human summary for status output.
func Describe(s State) string {
	switch s {
	case StateReady:
		return "backend ready"
	case StateLoading:
		return "backend loading model"
	case StateOffline:
		return "backend unreachable"
	case StateChecking:
		return "checking backend"
	default:
		return fmt.Sprintf("backend error (%s)", s)
	}
}
