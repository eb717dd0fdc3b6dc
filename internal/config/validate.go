package config

import (
	"fmt"
	"net/url"
)

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("invalid backend.base_url: empty")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend.base_url: %q (must be an absolute http(s) URL)", c.Backend.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend.base_url: unsupported scheme %q", u.Scheme)
	}
	if c.Backend.HealthInterval <= 0 {
		return fmt.Errorf("invalid backend.health_interval: %v", c.Backend.HealthInterval)
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("invalid backend.request_timeout: %v", c.Backend.RequestTimeout)
	}

	if c.Capture.Device == "" {
		return fmt.Errorf("invalid capture.device: empty")
	}
	if c.Capture.Width < 0 || c.Capture.Height < 0 {
		return fmt.Errorf("invalid capture dimensions: %dx%d", c.Capture.Width, c.Capture.Height)
	}
	if c.Capture.Framerate <= 0 {
		return fmt.Errorf("invalid capture.framerate: %d", c.Capture.Framerate)
	}
	if c.Capture.Timeout <= 0 {
		return fmt.Errorf("invalid capture.timeout: %v", c.Capture.Timeout)
	}
	validFormats := map[string]bool{"video/mp4": true, "video/webm": true, "video/quicktime": true}
	for _, f := range c.Capture.PreferredFormats {
		if !validFormats[f] {
			return fmt.Errorf("invalid capture.preferred_formats: unknown format %q (must be video/mp4, video/webm, or video/quicktime)", f)
		}
	}

	if len(c.Delivery.Backends) == 0 {
		return fmt.Errorf("invalid delivery.backends: empty (must have at least one backend)")
	}
	validBackends := map[string]bool{"wtype": true, "ydotool": true, "clipboard": true}
	for _, backend := range c.Delivery.Backends {
		if !validBackends[backend] {
			return fmt.Errorf("invalid delivery.backends: unknown backend %q (must be wtype, ydotool, or clipboard)", backend)
		}
	}
	if c.Delivery.PasteTimeout <= 0 {
		return fmt.Errorf("invalid delivery.paste_timeout: %v", c.Delivery.PasteTimeout)
	}
	if c.Delivery.ClipboardTimeout <= 0 {
		return fmt.Errorf("invalid delivery.clipboard_timeout: %v", c.Delivery.ClipboardTimeout)
	}

	if c.Overlay.PastedHide <= 0 {
		return fmt.Errorf("invalid overlay.pasted_hide: %v", c.Overlay.PastedHide)
	}
	if c.Overlay.ErrorHide <= 0 {
		return fmt.Errorf("invalid overlay.error_hide: %v", c.Overlay.ErrorHide)
	}
	if c.Overlay.WaitingHide <= 0 {
		return fmt.Errorf("invalid overlay.waiting_hide: %v", c.Overlay.WaitingHide)
	}
	if c.Overlay.WaitingCollapse <= 0 {
		return fmt.Errorf("invalid overlay.waiting_collapse: %v", c.Overlay.WaitingCollapse)
	}

	if c.Notifications.Enabled {
		validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
		if !validTypes[c.Notifications.Type] {
			return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
		}
	}

	return nil
}
