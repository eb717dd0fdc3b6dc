// Package daemon wires the pipeline together and serves the control
// socket: hotkey press/release commands come in, overlay status goes
// out.
package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/telepathyhq/telepathy/internal/bus"
	"github.com/telepathyhq/telepathy/internal/capture"
	"github.com/telepathyhq/telepathy/internal/config"
	"github.com/telepathyhq/telepathy/internal/deliver"
	"github.com/telepathyhq/telepathy/internal/health"
	"github.com/telepathyhq/telepathy/internal/notify"
	"github.com/telepathyhq/telepathy/internal/overlay"
	"github.com/telepathyhq/telepathy/internal/transcribe"
)

type Daemon struct {
	configMgr *config.Manager
	notifier  notify.Notifier

	ctx    context.Context
	cancel context.CancelFunc

	machine  *overlay.Machine
	monitor  *health.Monitor
	recorder *capture.Recorder
}

type Option func(*Daemon)

// WithNotifier overrides the configured notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(d *Daemon) { d.notifier = n }
}

func New(opts ...Option) (*Daemon, error) {
	configMgr, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := configMgr.GetConfig()

	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		configMgr: configMgr,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.notifier == nil {
		if cfg.Notifications.Enabled {
			d.notifier = notify.ForType(cfg.Notifications.Type)
		} else {
			d.notifier = notify.Nop{}
		}
	}

	d.monitor = health.NewMonitor(cfg.Backend.BaseURL, cfg.Backend.HealthInterval)
	d.recorder = capture.NewRecorder(captureConfig(cfg))

	startCapture := func(ctx context.Context) (overlay.Session, error) {
		session, err := d.recorder.Start(ctx)
		if err != nil {
			return nil, err
		}
		return session, nil
	}

	d.machine = overlay.NewMachine(
		overlayConfig(cfg),
		startCapture,
		&reloadingTranscriber{mgr: configMgr},
		&reloadingDeliverer{mgr: configMgr},
		d.monitor,
		overlay.WithListener(d.onTransition),
	)

	return d, nil
}

func captureConfig(cfg *config.Config) capture.Config {
	return capture.Config{
		Device:           cfg.Capture.Device,
		Width:            cfg.Capture.Width,
		Height:           cfg.Capture.Height,
		Framerate:        cfg.Capture.Framerate,
		PreferredFormats: cfg.Capture.PreferredFormats,
		Timeout:          cfg.Capture.Timeout,
	}
}

func overlayConfig(cfg *config.Config) overlay.Config {
	return overlay.Config{
		HotkeyLabel:     cfg.Overlay.HotkeyLabel,
		PastedHide:      cfg.Overlay.PastedHide,
		ErrorHide:       cfg.Overlay.ErrorHide,
		WaitingHide:     cfg.Overlay.WaitingHide,
		WaitingCollapse: cfg.Overlay.WaitingCollapse,
	}
}

// reloadingTranscriber builds a client from the live config on every
// request, so backend URL and timeout edits apply without a restart.
type reloadingTranscriber struct {
	mgr *config.Manager
}

func (r *reloadingTranscriber) Transcribe(ctx context.Context, clip capture.Clip) (string, error) {
	cfg := r.mgr.GetConfig()
	client := transcribe.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout)
	return client.Transcribe(ctx, clip)
}

// reloadingDeliverer does the same for the delivery chain.
type reloadingDeliverer struct {
	mgr *config.Manager
}

func (r *reloadingDeliverer) Deliver(ctx context.Context, text string) (deliver.Outcome, error) {
	cfg := r.mgr.GetConfig()
	d := deliver.NewDeliverer(deliver.Config{
		Backends:         cfg.Delivery.Backends,
		PasteTimeout:     cfg.Delivery.PasteTimeout,
		ClipboardTimeout: cfg.Delivery.ClipboardTimeout,
	})
	return d.Deliver(ctx, text)
}

func (d *Daemon) onTransition(status overlay.Status) {
	switch status.State {
	case overlay.StateRecording:
		go d.notifier.RecordingStarted()
	case overlay.StateProcessing:
		go d.notifier.Transcribing()
	case overlay.StatePasted:
		go d.notifier.Delivered(status.Detail)
	case overlay.StateError:
		go d.notifier.Error(status.Detail)
	}
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	if err := d.configMgr.StartWatching(d.ctx); err != nil {
		log.Printf("daemon: config watching unavailable: %v", err)
	}
	defer d.configMgr.Stop()

	d.monitor.Start(d.ctx)
	defer d.monitor.Stop()

	go d.machine.Run(d.ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		log.Printf("daemon: received signal %v, shutting down gracefully", sig)
		d.cancel()
	}()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("daemon: started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				log.Printf("daemon: shutdown requested")
				return nil
			}
			log.Printf("daemon: accept error: %v", err)
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("daemon: client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdPress:
		d.machine.Press()
		fmt.Fprint(c, "OK pressed\n")
	case bus.CmdRelease:
		d.machine.Release()
		fmt.Fprint(c, "OK released\n")
	case bus.CmdStatus:
		status := d.machine.Status(d.ctx)
		fmt.Fprintf(c, "STATUS state=%s backend=%s detail=%q\n",
			status.State, d.monitor.State(), status.Detail)
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("daemon: unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

// Status asks the state machine for its current snapshot. Used by
// tests and the status command path.
func (d *Daemon) Status() overlay.Status {
	return d.machine.Status(d.ctx)
}
