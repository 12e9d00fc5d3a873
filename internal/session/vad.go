package session

import (
	"fmt"

	"github.com/voxhire/voxhire/pkg/provider/vad"
)

// speechDetector rebuffers arbitrarily-sized audio chunks into fixed-size
// frames for the VAD engine. Leftover samples below one frame are retained
// and prefixed to the next chunk so no sample is ever skipped.
//
// Owned by a single session's event task; not safe for concurrent use.
type speechDetector struct {
	sess       vad.Session
	frameBytes int
	pending    []byte
}

func newSpeechDetector(engine vad.Engine, sampleRate, frameSamples int) (*speechDetector, error) {
	sess, err := engine.NewSession(vad.Config{
		SampleRate:   sampleRate,
		FrameSamples: frameSamples,
	})
	if err != nil {
		return nil, fmt.Errorf("session: create vad session: %w", err)
	}
	return &speechDetector{
		sess:       sess,
		frameBytes: frameSamples * 2,
	}, nil
}

// Process runs the detector over one inbound chunk and reports whether any
// frame carried a speech boundary (start or end). The detector state is
// reset after each pass so detection windows never bleed across chunks.
func (d *speechDetector) Process(chunk []byte) (bool, error) {
	d.pending = append(d.pending, chunk...)

	boundary := false
	for len(d.pending) >= d.frameBytes {
		frame := d.pending[:d.frameBytes]
		d.pending = d.pending[d.frameBytes:]

		ev, err := d.sess.ProcessFrame(frame)
		if err != nil {
			d.sess.Reset()
			return boundary, fmt.Errorf("session: vad frame: %w", err)
		}
		if ev.Boundary() {
			boundary = true
		}
	}

	d.sess.Reset()
	return boundary, nil
}

// Close releases the underlying VAD session.
func (d *speechDetector) Close() error {
	return d.sess.Close()
}
