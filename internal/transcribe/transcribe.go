// Package transcribe talks to the inference backend's transcription
// endpoint over HTTP.
package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/telepathyhq/telepathy/internal/capture"
)

// PlaceholderText is delivered when the backend returns an empty
// transcription, so the user still gets visible feedback.
const PlaceholderText = "(No transcription returned)"

// transcribeRequest is the backend's expected payload. The frames
// array is a legacy field the backend ignores when a video data URL
// is present, but it must be sent.
type transcribeRequest struct {
	Frames       []string `json:"frames"`
	Width        *int     `json:"width"`
	Height       *int     `json:"height"`
	VideoDataURL string   `json:"videoDataUrl"`
}

type transcribeResponse struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Client submits captured clips for transcription.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the request client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads the clip and returns the recognized text. An
// empty backend result is replaced with PlaceholderText so callers
// always have something to deliver.
func (c *Client) Transcribe(ctx context.Context, clip capture.Clip) (string, error) {
	if len(clip.Data) == 0 {
		return "", fmt.Errorf("empty clip")
	}

	payload := transcribeRequest{
		Frames:       []string{},
		VideoDataURL: encodeDataURL(clip),
	}
	if clip.Width > 0 {
		payload.Width = &clip.Width
	}
	if clip.Height > 0 {
		payload.Height = &clip.Height
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/transcribe", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newServerError(resp, respBody)
	}

	var result transcribeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	text := strings.TrimSpace(result.Text)
	log.Printf("transcribe: %d bytes of %s in %v: %q", len(clip.Data), clip.MIMEType, time.Since(start), text)

	if text == "" {
		return PlaceholderText, nil
	}
	return text, nil
}

// encodeDataURL wraps the clip bytes as a base64 data URL the way the
// backend expects its video input.
func encodeDataURL(clip capture.Clip) string {
	mime := clip.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(clip.Data)
}

// newServerError extracts a human-readable detail from an error
// response. JSON bodies carry {"detail": ...}; anything else is used
// verbatim, truncated to keep overlay messages short.
func newServerError(resp *http.Response, body []byte) *ServerError {
	detail := strings.TrimSpace(string(body))

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var parsed errorResponse
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
			detail = parsed.Detail
		}
	}

	const maxDetail = 200
	if len(detail) > maxDetail {
		detail = detail[:maxDetail]
	}

	return &ServerError{StatusCode: resp.StatusCode, Detail: detail}
}
