package config

import "time"

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://127.0.0.1:17893",
			HealthInterval: 1500 * time.Millisecond,
			RequestTimeout: 60 * time.Second,
		},
		Capture: CaptureConfig{
			Device:    "/dev/video0",
			Width:     0,
			Height:    0,
			Framerate: 25,
			PreferredFormats: []string{
				"video/mp4",
				"video/webm",
				"video/quicktime",
			},
			Timeout: 5 * time.Minute,
		},
		Delivery: DeliveryConfig{
			Backends:         []string{"wtype", "ydotool", "clipboard"},
			PasteTimeout:     5 * time.Second,
			ClipboardTimeout: 3 * time.Second,
		},
		Overlay: OverlayConfig{
			HotkeyLabel:     "CommandOrControl+Shift+Space",
			PastedHide:      2500 * time.Millisecond,
			ErrorHide:       1800 * time.Millisecond,
			WaitingHide:     1800 * time.Millisecond,
			WaitingCollapse: 150 * time.Millisecond,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
	}
}
