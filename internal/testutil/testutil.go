// Package testutil provides shared helpers and mocks for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/telepathyhq/telepathy/internal/capture"
	"github.com/telepathyhq/telepathy/internal/config"
	"github.com/telepathyhq/telepathy/internal/deliver"
	"github.com/telepathyhq/telepathy/internal/health"
)

// TestConfig returns a valid configuration for testing
func TestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Backend.HealthInterval = 20 * time.Millisecond
	cfg.Backend.RequestTimeout = 2 * time.Second
	cfg.Overlay.PastedHide = 50 * time.Millisecond
	cfg.Overlay.ErrorHide = 40 * time.Millisecond
	cfg.Overlay.WaitingHide = 40 * time.Millisecond
	cfg.Overlay.WaitingCollapse = 10 * time.Millisecond
	cfg.Notifications.Type = "log"
	return cfg
}

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(2 * time.Millisecond)
		}
	}
}

// MockSession implements the overlay's capture session surface.
type MockSession struct {
	Clip capture.Clip
	Err  error

	mu        sync.Mutex
	stopCount int
	done      chan struct{}
}

func NewMockSession(data []byte) *MockSession {
	return &MockSession{
		Clip: capture.Clip{
			Data:     data,
			MIMEType: "video/webm",
			Width:    640,
			Height:   480,
		},
		done: make(chan struct{}),
	}
}

func (s *MockSession) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCount++
	if s.stopCount == 1 {
		close(s.done)
	}
}

// Done reports session teardown, which for the mock completes on the
// first Stop.
func (s *MockSession) Done() <-chan struct{} {
	return s.done
}

func (s *MockSession) Wait(ctx context.Context) (capture.Clip, error) {
	if s.Err != nil {
		return capture.Clip{}, s.Err
	}
	return s.Clip, nil
}

func (s *MockSession) StopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCount
}

// MockTranscriber returns a canned transcription or error.
type MockTranscriber struct {
	Text string
	Err  error

	mu    sync.Mutex
	calls int
	clips []capture.Clip
}

func NewMockTranscriber(text string) *MockTranscriber {
	return &MockTranscriber{Text: text}
}

func (m *MockTranscriber) Transcribe(ctx context.Context, clip capture.Clip) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.clips = append(m.clips, clip)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

func (m *MockTranscriber) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockDeliverer records delivered texts and reports a canned outcome.
type MockDeliverer struct {
	Outcome deliver.Outcome
	Err     error

	mu    sync.Mutex
	texts []string
}

func NewMockDeliverer(delivered bool) *MockDeliverer {
	method := "clipboard"
	if delivered {
		method = "wtype"
	}
	return &MockDeliverer{Outcome: deliver.Outcome{Delivered: delivered, Method: method}}
}

func (m *MockDeliverer) Deliver(ctx context.Context, text string) (deliver.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return deliver.Outcome{}, m.Err
	}
	m.texts = append(m.texts, text)
	return m.Outcome, nil
}

func (m *MockDeliverer) DeliveredTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.texts))
	copy(out, m.texts)
	return out
}

// MockHealthSource reports a settable backend state.
type MockHealthSource struct {
	mu    sync.Mutex
	state health.State
}

func NewMockHealthSource(state health.State) *MockHealthSource {
	return &MockHealthSource{state: state}
}

func (m *MockHealthSource) State() health.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *MockHealthSource) Set(state health.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}
