package deliver

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

func setClipboard(ctx context.Context, text string, timeout time.Duration) error {
	if _, err := exec.LookPath("wl-copy"); err != nil {
		return fmt.Errorf("wl-copy not found: %w (install wl-clipboard)", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "wl-copy")
	cmd.Stdin = strings.NewReader(text)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("wl-copy failed: %w", err)
	}

	return nil
}

// GetClipboard reads the current clipboard contents. Errors are
// reported as empty; an unreadable clipboard is treated as one with
// nothing on it.
func GetClipboard(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "wl-paste", "--no-newline")
	output, err := cmd.Output()
	if err != nil {
		return "", nil
	}

	return string(output), nil
}

// ClipboardRoundTrip copies a token and reads it back, verifying the
// wl-copy/wl-paste pair works against the running compositor. The
// previous clipboard contents are restored afterwards.
func ClipboardRoundTrip(ctx context.Context, timeout time.Duration) error {
	if _, err := exec.LookPath("wl-paste"); err != nil {
		return fmt.Errorf("wl-paste not found: %w (install wl-clipboard)", err)
	}
	token := fmt.Sprintf("telepathy-doctor-%d", time.Now().UnixNano())
	return clipboardRoundTrip(ctx, token, timeout, setClipboard, GetClipboard)
}

func clipboardRoundTrip(
	ctx context.Context,
	token string,
	timeout time.Duration,
	set func(context.Context, string, time.Duration) error,
	get func(context.Context, time.Duration) (string, error),
) error {
	previous, _ := get(ctx, timeout)

	if err := set(ctx, token, timeout); err != nil {
		return err
	}
	defer func() {
		if previous != "" {
			_ = set(ctx, previous, timeout)
		}
	}()

	got, err := get(ctx, timeout)
	if err != nil {
		return err
	}
	if got != token {
		return fmt.Errorf("clipboard round trip mismatch: wl-paste returned %d bytes", len(got))
	}
	return nil
}
