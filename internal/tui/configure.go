// Package tui is the interactive configuration editor.
package tui

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/telepathyhq/telepathy/internal/config"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// ConfigSection represents a configuration section
type ConfigSection string

const (
	SectionBackend       ConfigSection = "backend"
	SectionCapture       ConfigSection = "capture"
	SectionDelivery      ConfigSection = "delivery"
	SectionOverlay       ConfigSection = "overlay"
	SectionNotifications ConfigSection = "notifications"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// Run starts the configuration menu loop.
func Run(cfg *config.Config) (*ConfigureResult, error) {
	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := confirmSave(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg, Cancelled: false}, nil
			}

		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case SectionBackend:
			if err := editBackend(cfg); err != nil {
				continue
			}

		case SectionCapture:
			if err := editCapture(cfg); err != nil {
				continue
			}

		case SectionDelivery:
			backends, err := selectDeliveryBackends(cfg.Delivery.Backends)
			if err != nil {
				continue
			}
			cfg.Delivery.Backends = backends

		case SectionOverlay:
			if err := editOverlay(cfg); err != nil {
				continue
			}

		case SectionNotifications:
			if err := editNotifications(cfg); err != nil {
				continue
			}
		}
	}
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(fmt.Sprintf("Backend (%s)", cfg.Backend.BaseURL), SectionBackend),
		huh.NewOption(fmt.Sprintf("Capture (%s)", cfg.Capture.Device), SectionCapture),
		huh.NewOption(fmt.Sprintf("Delivery (%v)", cfg.Delivery.Backends), SectionDelivery),
		huh.NewOption(fmt.Sprintf("Overlay (hotkey %s)", cfg.Overlay.HotkeyLabel), SectionOverlay),
		huh.NewOption(formatNotificationsLabel(cfg), SectionNotifications),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}

	return selected, nil
}

func formatNotificationsLabel(cfg *config.Config) string {
	if cfg.Notifications.Enabled {
		return fmt.Sprintf("Notifications (enabled, %s)", cfg.Notifications.Type)
	}
	return "Notifications (disabled)"
}

func editBackend(cfg *config.Config) error {
	baseURL := cfg.Backend.BaseURL
	timeout := cfg.Backend.RequestTimeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("The inference server providing /transcribe and /health").
				Value(&baseURL).
				Validate(func(s string) error {
					u, err := url.Parse(s)
					if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
						return fmt.Errorf("must be an absolute http(s) URL")
					}
					return nil
				}),
			huh.NewInput().
				Title("Request timeout").
				Description("How long to wait for a transcription (e.g. 60s, 2m)").
				Value(&timeout).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Backend.BaseURL = baseURL
	cfg.Backend.RequestTimeout, _ = time.ParseDuration(timeout)
	return nil
}

func editCapture(cfg *config.Config) error {
	device := cfg.Capture.Device
	framerate := strconv.Itoa(cfg.Capture.Framerate)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Camera device").
				Description("V4L2 device node, usually /dev/video0").
				Value(&device).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("device cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Framerate").
				Value(&framerate).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return fmt.Errorf("must be a positive number")
					}
					return nil
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Capture.Device = device
	cfg.Capture.Framerate, _ = strconv.Atoi(framerate)
	return nil
}

func selectDeliveryBackends(current []string) ([]string, error) {
	selected := append([]string{}, current...)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Delivery backends").
				Description("Paste tools tried in order; clipboard is the fallback").
				Options(
					huh.NewOption("wtype (Wayland paste)", "wtype"),
					huh.NewOption("ydotool (uinput paste)", "ydotool"),
					huh.NewOption("clipboard (wl-copy only)", "clipboard"),
				).
				Value(&selected).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("select at least one backend")
					}
					return nil
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return nil, err
	}

	return selected, nil
}

func editOverlay(cfg *config.Config) error {
	label := cfg.Overlay.HotkeyLabel
	pastedHide := cfg.Overlay.PastedHide.String()
	errorHide := cfg.Overlay.ErrorHide.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Hotkey label").
				Description("Display only - the binding itself lives in your compositor config").
				Value(&label),
			huh.NewInput().
				Title("Success display time").
				Description("How long the pasted confirmation stays visible").
				Value(&pastedHide).
				Validate(validateDuration),
			huh.NewInput().
				Title("Error display time").
				Value(&errorHide).
				Validate(validateDuration),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Overlay.HotkeyLabel = label
	cfg.Overlay.PastedHide, _ = time.ParseDuration(pastedHide)
	cfg.Overlay.ErrorHide, _ = time.ParseDuration(errorHide)
	return nil
}

func editNotifications(cfg *config.Config) error {
	enabled := cfg.Notifications.Enabled

	desc := "Show notifications for recording status changes"
	if cfg.Notifications.Enabled {
		desc = fmt.Sprintf("Currently: enabled (%s). %s", cfg.Notifications.Type, desc)
	} else {
		desc = "Currently: disabled. " + desc
	}

	enableForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable desktop notifications?").
				Description(desc).
				Value(&enabled),
		),
	).WithTheme(getTheme())

	if err := enableForm.Run(); err != nil {
		return err
	}

	cfg.Notifications.Enabled = enabled

	if !enabled {
		return nil
	}

	notifType := cfg.Notifications.Type
	if notifType == "" {
		notifType = "desktop"
	}

	typeForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notification type").
				Options(
					huh.NewOption("Desktop notifications (notify-send)", "desktop"),
					huh.NewOption("Log to console only", "log"),
					huh.NewOption("None (silent)", "none"),
				).
				Value(&notifType),
		),
	).WithTheme(getTheme())

	if err := typeForm.Run(); err != nil {
		return err
	}

	cfg.Notifications.Type = notifType
	return nil
}

func confirmSave(cfg *config.Config) (bool, error) {
	summary := fmt.Sprintf(
		"Backend: %s\nCamera: %s\nDelivery: %v\nHotkey: %s\nNotifications: %s",
		cfg.Backend.BaseURL, cfg.Capture.Device, cfg.Delivery.Backends,
		cfg.Overlay.HotkeyLabel, formatNotificationsLabel(cfg),
	)

	confirmed := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Description(summary).
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fmt.Errorf("must be a positive duration (e.g. 2s, 500ms)")
	}
	return nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
