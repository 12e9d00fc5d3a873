// Package elevenlabs provides an ElevenLabs-backed Synthesizer using the
// ElevenLabs streaming WebSocket API. It implements the tts.Synthesizer
// interface by collecting the streamed PCM chunks into a single buffer —
// interview questions are short, so buffering the full utterance keeps the
// transport contract simple (one chat event carries one audio payload).
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"

	"github.com/voxhire/voxhire/pkg/provider/tts"
)

const (
	defaultEndpointFmt = "wss://api.elevenlabs.io/v1/text-to-speech/%s/stream-input?model_id=%s"
	defaultModel       = "eleven_flash_v2_5"
	defaultOutputFmt   = "pcm_16000"
)

// Compile-time interface assertion.
var _ tts.Synthesizer = (*Synthesizer)(nil)

// Option is a functional option for configuring the Synthesizer.
type Option func(*Synthesizer)

// WithModel sets the ElevenLabs model ID (e.g., "eleven_flash_v2_5").
func WithModel(model string) Option {
	return func(s *Synthesizer) {
		s.model = model
	}
}

// WithOutputFormat sets the audio output format (e.g., "pcm_16000", "mp3_44100_128").
func WithOutputFormat(format string) Option {
	return func(s *Synthesizer) {
		s.outputFormat = format
	}
}

// WithEndpointFormat overrides the WebSocket endpoint format string. The
// format must contain two %s verbs for the voice ID and model ID. Used in
// tests to point at a local server.
func WithEndpointFormat(format string) Option {
	return func(s *Synthesizer) {
		s.endpointFmt = format
	}
}

// Synthesizer implements tts.Synthesizer backed by the ElevenLabs streaming API.
type Synthesizer struct {
	apiKey       string
	voiceID      string
	model        string
	outputFormat string
	endpointFmt  string
}

// New creates a new ElevenLabs Synthesizer. apiKey and voiceID must be non-empty.
func New(apiKey, voiceID string, opts ...Option) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, errors.New("elevenlabs: apiKey must not be empty")
	}
	if voiceID == "" {
		return nil, errors.New("elevenlabs: voiceID must not be empty")
	}
	s := &Synthesizer{
		apiKey:       apiKey,
		voiceID:      voiceID,
		model:        defaultModel,
		outputFormat: defaultOutputFmt,
		endpointFmt:  defaultEndpointFmt,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// ---- WebSocket message types ----

// textMessage is the JSON payload sent to ElevenLabs for each text fragment.
// An empty Text signals end of input.
type textMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
}

// voiceSettings mirrors the ElevenLabs voice_settings object.
type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// boiMessage is used for the initial "begin of input" handshake.
type boiMessage struct {
	Text          string         `json:"text"`
	VoiceSettings *voiceSettings `json:"voice_settings,omitempty"`
	XiAPIKey      string         `json:"xi_api_key"`
	OutputFormat  string         `json:"output_format,omitempty"`
}

// audioResponse is the JSON message received from ElevenLabs over the WebSocket.
type audioResponse struct {
	Audio   string `json:"audio"` // base64-encoded audio
	IsFinal bool   `json:"isFinal"`
	Message string `json:"message,omitempty"` // error or info
}

// Synthesize implements tts.Synthesizer. It opens a WebSocket to ElevenLabs,
// sends the full text followed by an end-of-input flush, and collects the
// returned audio chunks into a single byte slice.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	wsURL := fmt.Sprintf(s.endpointFmt, s.voiceID, s.model)
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// BOI message authenticates and configures the stream. ElevenLabs
	// requires a non-empty first text value.
	boi := boiMessage{
		Text: " ",
		VoiceSettings: &voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
		XiAPIKey:     s.apiKey,
		OutputFormat: s.outputFormat,
	}
	if err := writeJSON(ctx, conn, boi); err != nil {
		return nil, fmt.Errorf("elevenlabs: send BOI: %w", err)
	}

	if err := writeJSON(ctx, conn, textMessage{Text: text}); err != nil {
		return nil, fmt.Errorf("elevenlabs: send text: %w", err)
	}

	// Empty text flushes the stream and asks the server to finalise.
	if err := writeJSON(ctx, conn, textMessage{Text: ""}); err != nil {
		return nil, fmt.Errorf("elevenlabs: send flush: %w", err)
	}

	var audio []byte
	for {
		_, msg, err := conn.Read(ctx)
		if err != nil {
			// Normal closure after the final chunk is not an error.
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure && len(audio) > 0 {
				return audio, nil
			}
			if len(audio) > 0 {
				return audio, nil
			}
			return nil, fmt.Errorf("elevenlabs: read: %w", err)
		}

		var resp audioResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if resp.Audio != "" {
			pcm, err := base64.StdEncoding.DecodeString(resp.Audio)
			if err == nil {
				audio = append(audio, pcm...)
			}
		}
		if resp.IsFinal {
			return audio, nil
		}
	}
}

// writeJSON marshals v and writes it as a text frame.
func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
