package config

import "time"

type Config struct {
	Backend       BackendConfig       `toml:"backend"`
	Capture       CaptureConfig       `toml:"capture"`
	Delivery      DeliveryConfig      `toml:"delivery"`
	Overlay       OverlayConfig       `toml:"overlay"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// BackendConfig points at the inference service providing /transcribe
// and /health.
type BackendConfig struct {
	BaseURL        string        `toml:"base_url"`
	HealthInterval time.Duration `toml:"health_interval"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type CaptureConfig struct {
	Device           string        `toml:"device"`
	Width            int           `toml:"width"`  // 0 = unknown, let the device decide
	Height           int           `toml:"height"` // 0 = unknown
	Framerate        int           `toml:"framerate"`
	PreferredFormats []string      `toml:"preferred_formats"` // ordered MIME types, first supported wins
	Timeout          time.Duration `toml:"timeout"`           // hard cap on a single hold
}

type DeliveryConfig struct {
	Backends         []string      `toml:"backends"`
	PasteTimeout     time.Duration `toml:"paste_timeout"`
	ClipboardTimeout time.Duration `toml:"clipboard_timeout"`
}

// OverlayConfig tunes the status indicator timing. Hide delays are
// asymmetric: a delivered result stays visible longer than an error.
type OverlayConfig struct {
	HotkeyLabel     string        `toml:"hotkey_label"` // display only
	PastedHide      time.Duration `toml:"pasted_hide"`
	ErrorHide       time.Duration `toml:"error_hide"`
	WaitingHide     time.Duration `toml:"waiting_hide"`
	WaitingCollapse time.Duration `toml:"waiting_collapse"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}
