// Package whisper provides a whisper-server-backed Transcriber.
//
// It connects to a running whisper.cpp server binary (which exposes a REST
// API at POST /inference) and submits each recorded answer as a
// multipart/form-data batch inference request.
//
// Usage:
//
//	t, err := whisper.New("http://localhost:8090", whisper.WithLanguage("en"))
//	text, err := t.Transcribe(ctx, "output/abc/latest_answer.wav")
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/voxhire/voxhire/pkg/provider/stt"
)

const (
	defaultLanguage = "en"
	defaultTimeout  = 60 * time.Second
)

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithModel sets the model identifier forwarded to the whisper server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithLanguage sets the BCP-47 language code sent to the whisper server
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(t *Transcriber) {
		t.language = lang
	}
}

// WithHTTPClient overrides the HTTP client used for inference requests.
// The default client has a 60 s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transcriber) {
		t.httpClient = c
	}
}

// Transcriber implements stt.Transcriber backed by a whisper.cpp HTTP server.
// Multiple Transcribe calls may run concurrently.
type Transcriber struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a Transcriber that connects to the whisper server at serverURL
// (e.g., "http://localhost:8090"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Transcriber, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	t := &Transcriber{
		serverURL:  strings.TrimSuffix(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Transcribe implements stt.Transcriber. It uploads the WAV file at wavPath
// to the server's /inference endpoint and returns the transcribed text with
// surrounding whitespace trimmed.
func (t *Transcriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	wav, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("whisper: read wav file: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	// Primary audio field.
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}

	// Optional hint fields.
	if t.language != "" {
		if err := mw.WriteField("language", t.language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if t.model != "" {
		if err := mw.WriteField("model", t.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := t.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	return strings.TrimSpace(result.Text), nil
}
