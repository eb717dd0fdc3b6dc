package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telepathyhq/telepathy/internal/bus"
	"github.com/telepathyhq/telepathy/internal/config"
	"github.com/telepathyhq/telepathy/internal/daemon"
	"github.com/telepathyhq/telepathy/internal/deliver"
	"github.com/telepathyhq/telepathy/internal/deps"
	"github.com/telepathyhq/telepathy/internal/health"
	"github.com/telepathyhq/telepathy/internal/tui"
)

func main() {
	_ = rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "telepathy",
	Short: "Hold-to-record voice typing through a webcam capture pipeline",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		pressCmd(),
		releaseCmd(),
		statusCmd(),
		versionCmd(),
		stopCmd(),
		configureCmd(),
		doctorCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := daemon.New()
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

func pressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "press",
		Short: "Report a hotkey press (starts recording)",
		Long: `Report the press edge of the bound hotkey to the daemon.
Bind this command to key-down in your compositor; recording runs
for exactly as long as the key is held.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdPress)
			if err != nil {
				return fmt.Errorf("failed to send press: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func releaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Report a hotkey release (stops recording)",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdRelease)
			if err != nil {
				return fmt.Errorf("failed to send release: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get current overlay and backend status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdStatus)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Get protocol version",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdVersion)
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdQuit)
			if err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration editor for telepathy.
This will guide you through setting up:
- The inference backend URL and timeouts
- Camera device and capture format
- Text delivery and notification preferences`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.LoadOrDefault()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}

	if result.Cancelled {
		fmt.Println(tui.StyleMuted.Render("Configuration cancelled."))
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.StyleSuccess.Render("Configuration saved successfully!"))
	fmt.Println()

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)

	return nil
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

func runDoctor(ctx context.Context) error {
	cfg, err := config.LoadOrDefault()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("External tools:")
	statuses := deps.CheckAll()
	clipboardUsable := true
	for _, s := range statuses {
		mark := tui.StyleMuted.Render("[ ]")
		if s.Installed {
			mark = tui.StyleSuccess.Render("[x]")
		} else if s.Name == "wl-copy" || s.Name == "wl-paste" {
			clipboardUsable = false
		}
		line := fmt.Sprintf("  %s %s - %s", mark, s.Name, s.Note)
		if s.Version != "" {
			line += " " + tui.StyleMuted.Render(fmt.Sprintf("(%s)", s.Version))
		}
		if !s.Installed && s.Required {
			line += " " + tui.StyleError.Render("REQUIRED")
		}
		fmt.Println(line)
	}

	fmt.Println()
	fmt.Println("Clipboard:")
	if clipboardUsable {
		clipCtx, clipCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := deliver.ClipboardRoundTrip(clipCtx, 3*time.Second); err != nil {
			fmt.Printf("  %s\n", tui.StyleError.Render(fmt.Sprintf("round trip failed: %v", err)))
		} else {
			fmt.Printf("  %s\n", tui.StyleSuccess.Render("wl-copy/wl-paste round trip OK"))
		}
		clipCancel()
	} else {
		fmt.Printf("  %s\n", tui.StyleWarning.Render("round trip skipped (wl-clipboard not installed)"))
	}

	fmt.Println()
	fmt.Printf("Backend %s:\n", cfg.Backend.BaseURL)
	monitor := health.NewMonitor(cfg.Backend.BaseURL, cfg.Backend.HealthInterval)
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	state := monitor.CheckOnce(checkCtx)
	desc := health.Describe(state)
	switch {
	case state.Ready():
		desc = tui.StyleSuccess.Render(desc)
	case state == health.StateLoading:
		desc = tui.StyleWarning.Render(desc)
	default:
		desc = tui.StyleError.Render(desc)
	}
	fmt.Printf("  %s\n", desc)

	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %v", missing)
	}
	return nil
}
