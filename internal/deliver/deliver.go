// Package deliver places transcribed text into the user's session,
// by pasting into the focused application when a paste tool works
// and falling back to the clipboard otherwise.
package deliver

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Backend is one way of pushing text into the focused application.
type Backend interface {
	Name() string
	Available() error
	Paste(ctx context.Context, text string, timeout time.Duration) error
}

// Outcome reports how the text reached the user. Delivered means it
// was typed into the active app; false means clipboard only.
type Outcome struct {
	Delivered bool
	Method    string
}

type Config struct {
	Backends         []string // paste backends in priority order; "clipboard" ends the chain
	PasteTimeout     time.Duration
	ClipboardTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Backends:         []string{"wtype", "ydotool", "clipboard"},
		PasteTimeout:     5 * time.Second,
		ClipboardTimeout: 3 * time.Second,
	}
}

// Deliverer orchestrates clipboard copy plus the paste backend chain.
type Deliverer struct {
	config    Config
	backends  map[string]Backend
	clipboard func(ctx context.Context, text string, timeout time.Duration) error
}

type Option func(*Deliverer)

// WithBackend registers or replaces a paste backend.
func WithBackend(b Backend) Option {
	return func(d *Deliverer) { d.backends[b.Name()] = b }
}

// WithClipboard overrides the clipboard setter.
func WithClipboard(set func(ctx context.Context, text string, timeout time.Duration) error) Option {
	return func(d *Deliverer) { d.clipboard = set }
}

func NewDeliverer(config Config, opts ...Option) *Deliverer {
	d := &Deliverer{
		config: config,
		backends: map[string]Backend{
			"wtype":   &wtypeBackend{},
			"ydotool": &ydotoolBackend{},
		},
		clipboard: setClipboard,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deliver copies the text to the clipboard first, so it is never
// lost, then walks the paste chain. A backend that pastes wins; if
// every backend fails the clipboard copy stands as the result.
func (d *Deliverer) Deliver(ctx context.Context, text string) (Outcome, error) {
	if text == "" {
		return Outcome{}, fmt.Errorf("cannot deliver empty text")
	}

	clipErr := d.clipboard(ctx, text, d.config.ClipboardTimeout)
	if clipErr != nil {
		log.Printf("deliver: clipboard copy failed: %v", clipErr)
	}

	for _, name := range d.config.Backends {
		if name == "clipboard" {
			break
		}

		backend, ok := d.backends[name]
		if !ok {
			log.Printf("deliver: unknown backend %q, skipping", name)
			continue
		}
		if err := backend.Available(); err != nil {
			log.Printf("deliver: %s unavailable: %v", name, err)
			continue
		}
		if err := backend.Paste(ctx, text, d.config.PasteTimeout); err != nil {
			log.Printf("deliver: %s paste failed: %v", name, err)
			continue
		}

		log.Printf("deliver: pasted %d chars via %s", len(text), name)
		return Outcome{Delivered: true, Method: name}, nil
	}

	if clipErr != nil {
		return Outcome{}, fmt.Errorf("no paste backend worked and clipboard failed: %w", clipErr)
	}

	log.Printf("deliver: copied %d chars to clipboard", len(text))
	return Outcome{Delivered: false, Method: "clipboard"}, nil
}
