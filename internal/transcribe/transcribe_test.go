package transcribe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/telepathyhq/telepathy/internal/capture"
)

func testClip() capture.Clip {
	return capture.Clip{
		Data:     []byte("fake-video-bytes"),
		MIMEType: "video/webm",
		Width:    1280,
		Height:   720,
	}
}

func clientFor(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, WithHTTPClient(srv.Client()))
}

func TestTranscribeSendsExpectedPayload(t *testing.T) {
	var got map[string]any

	c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/transcribe" {
			t.Errorf("request %s %s, want POST /transcribe", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello world"}`))
	})

	text, err := c.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q", text)
	}

	if frames, ok := got["frames"].([]any); !ok || len(frames) != 0 {
		t.Errorf("frames = %v, want empty array", got["frames"])
	}
	if got["width"] != float64(1280) || got["height"] != float64(720) {
		t.Errorf("dimensions = %v x %v", got["width"], got["height"])
	}

	dataURL, _ := got["videoDataUrl"].(string)
	prefix := "data:video/webm;base64,"
	if !strings.HasPrefix(dataURL, prefix) {
		t.Fatalf("videoDataUrl = %q, want %q prefix", dataURL, prefix)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	if err != nil {
		t.Fatalf("decode data URL: %v", err)
	}
	if string(decoded) != "fake-video-bytes" {
		t.Errorf("decoded payload = %q", decoded)
	}
}

func TestTranscribeOmitsUnknownDimensions(t *testing.T) {
	var got map[string]any

	c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"text":"ok"}`))
	})

	clip := testClip()
	clip.Width = 0
	clip.Height = 0
	if _, err := c.Transcribe(context.Background(), clip); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if got["width"] != nil || got["height"] != nil {
		t.Errorf("dimensions should be null when unknown, got %v x %v", got["width"], got["height"])
	}
}

func TestEmptyResultBecomesPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"text":""}`},
		{"whitespace text", `{"text":"   "}`},
		{"missing field", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			text, err := c.Transcribe(context.Background(), testClip())
			if err != nil {
				t.Fatalf("Transcribe failed: %v", err)
			}
			if text != PlaceholderText {
				t.Errorf("text = %q, want placeholder", text)
			}
		})
	}
}

func TestServerErrorWithJSONDetail(t *testing.T) {
	c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(500)
		w.Write([]byte(`{"detail":"boom"}`))
	})

	_, err := c.Transcribe(context.Background(), testClip())
	if err == nil {
		t.Fatal("expected error")
	}

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *ServerError", err)
	}
	if se.StatusCode != 500 || se.Detail != "boom" {
		t.Errorf("server error = %d %q", se.StatusCode, se.Detail)
	}
	if se.Error() != "Server responded with 500: boom" {
		t.Errorf("message = %q", se.Error())
	}
}

func TestServerErrorWithPlainBody(t *testing.T) {
	c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(502)
		w.Write([]byte("bad gateway"))
	})

	_, err := c.Transcribe(context.Background(), testClip())
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *ServerError", err)
	}
	if se.Detail != "bad gateway" {
		t.Errorf("detail = %q", se.Detail)
	}
}

func TestLongErrorDetailTruncated(t *testing.T) {
	c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte(strings.Repeat("x", 1000)))
	})

	_, err := c.Transcribe(context.Background(), testClip())
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want *ServerError", err)
	}
	if len(se.Detail) != 200 {
		t.Errorf("detail length = %d, want 200", len(se.Detail))
	}
}

func TestEmptyClipRejected(t *testing.T) {
	c := clientFor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be contacted for an empty clip")
	})

	if _, err := c.Transcribe(context.Background(), capture.Clip{}); err == nil {
		t.Error("expected error for empty clip")
	}
}

func TestIsServerError(t *testing.T) {
	if !IsServerError(&ServerError{StatusCode: 500}) {
		t.Error("IsServerError should match ServerError")
	}
	if IsServerError(errors.New("plain")) {
		t.Error("IsServerError should not match plain errors")
	}
}
