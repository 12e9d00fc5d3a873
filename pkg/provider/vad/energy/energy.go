// Package energy provides a dependency-free VAD engine based on
// root-mean-square frame energy.
//
// It classifies a frame as speech when its RMS level crosses the speech
// threshold and as silence once it falls below the (lower) silence
// threshold. The hysteresis between the two thresholds suppresses rapid
// start/end flapping on breathy or quiet speech. It is deliberately simple:
// model-backed detectors plug in behind the same vad.Engine interface.
package energy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/voxhire/voxhire/pkg/provider/vad"
)

const (
	// defaultSpeechRMS is the RMS level (in 16-bit PCM units, max 32 767)
	// above which a frame counts as speech. 500 corresponds to quiet but
	// audible speech on typical laptop microphones.
	defaultSpeechRMS = 500.0

	// defaultSilenceRMS is the RMS level below which an active speech
	// segment is considered ended.
	defaultSilenceRMS = 300.0
)

// Compile-time assertion that Engine implements vad.Engine.
var _ vad.Engine = (*Engine)(nil)

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithSpeechRMS sets the RMS level above which a frame is classified as
// speech. Defaults to 500.
func WithSpeechRMS(level float64) Option {
	return func(e *Engine) {
		e.speechRMS = level
	}
}

// WithSilenceRMS sets the RMS level below which an active speech segment is
// considered ended. Must be ≤ the speech level. Defaults to 300.
func WithSilenceRMS(level float64) Option {
	return func(e *Engine) {
		e.silenceRMS = level
	}
}

// Engine implements vad.Engine using RMS frame energy with hysteresis.
// Safe for concurrent use; each NewSession call returns an independent session.
type Engine struct {
	speechRMS  float64
	silenceRMS float64
}

// New creates an energy Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		speechRMS:  defaultSpeechRMS,
		silenceRMS: defaultSilenceRMS,
	}
	for _, o := range opts {
		o(e)
	}
	if e.silenceRMS > e.speechRMS {
		return nil, fmt.Errorf("energy: silence level %.0f must not exceed speech level %.0f", e.silenceRMS, e.speechRMS)
	}
	return e, nil
}

// NewSession implements vad.Engine.
func (e *Engine) NewSession(cfg vad.Config) (vad.Session, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("energy: invalid sample rate %d", cfg.SampleRate)
	}
	if cfg.FrameSamples <= 0 {
		return nil, fmt.Errorf("energy: invalid frame size %d", cfg.FrameSamples)
	}
	return &session{
		engine:     e,
		frameBytes: cfg.FrameSamples * 2,
	}, nil
}

// session holds per-stream detection state. Not safe for concurrent use.
type session struct {
	engine     *Engine
	frameBytes int
	inSpeech   bool
	closed     bool
}

var errClosed = errors.New("energy: session is closed")

// ProcessFrame implements vad.Session.
func (s *session) ProcessFrame(frame []byte) (vad.Event, error) {
	if s.closed {
		return vad.Event{}, errClosed
	}
	if len(frame) != s.frameBytes {
		return vad.Event{}, fmt.Errorf("energy: frame is %d bytes, want %d", len(frame), s.frameBytes)
	}

	rms := computeRMS(frame)
	ev := vad.Event{Probability: math.Min(rms/s.engine.speechRMS, 1.0)}

	switch {
	case rms >= s.engine.speechRMS && !s.inSpeech:
		s.inSpeech = true
		ev.Type = vad.SpeechStart
	case rms >= s.engine.silenceRMS && s.inSpeech:
		ev.Type = vad.SpeechContinue
	case s.inSpeech:
		s.inSpeech = false
		ev.Type = vad.SpeechEnd
	default:
		ev.Type = vad.Silence
	}
	return ev, nil
}

// Reset implements vad.Session.
func (s *session) Reset() {
	s.inSpeech = false
}

// Close implements vad.Session.
func (s *session) Close() error {
	s.closed = true
	return nil
}

// computeRMS returns the root-mean-square energy of a 16-bit signed
// little-endian PCM buffer, expressed in PCM sample units (0–32 767).
func computeRMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		v := float64(sample)
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
