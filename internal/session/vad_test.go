package session

import (
	"bytes"
	"testing"

	"github.com/voxhire/voxhire/pkg/provider/vad"
	vadmock "github.com/voxhire/voxhire/pkg/provider/vad/mock"
)

func TestSpeechDetector_Rebuffering(t *testing.T) {
	t.Parallel()

	sess := &vadmock.Session{}
	engine := &vadmock.Engine{SessionResult: sess}

	// 4 samples per frame = 8 bytes.
	d, err := newSpeechDetector(engine, 16000, 4)
	if err != nil {
		t.Fatalf("newSpeechDetector() error: %v", err)
	}

	// 10 bytes: one full frame plus 2 leftover bytes.
	if _, err := d.Process(bytes.Repeat([]byte{1}, 10)); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if got := sess.FrameCount(); got != 1 {
		t.Errorf("frames after first chunk = %d, want 1", got)
	}

	// 6 more bytes: leftover 2 + 6 = one more full frame, zero leftover.
	if _, err := d.Process(bytes.Repeat([]byte{2}, 6)); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if got := sess.FrameCount(); got != 2 {
		t.Errorf("frames after second chunk = %d, want 2", got)
	}

	// The second frame must start with the 2 leftover bytes.
	frame := sess.Frames[1]
	if frame[0] != 1 || frame[1] != 1 || frame[2] != 2 {
		t.Errorf("leftover bytes not prefixed: frame = %v", frame)
	}
}

func TestSpeechDetector_ReportsBoundaries(t *testing.T) {
	t.Parallel()

	sess := &vadmock.Session{Events: []vad.Event{
		{Type: vad.Silence},
		{Type: vad.SpeechStart},
	}}
	d, err := newSpeechDetector(&vadmock.Engine{SessionResult: sess}, 16000, 4)
	if err != nil {
		t.Fatalf("newSpeechDetector() error: %v", err)
	}

	boundary, err := d.Process(bytes.Repeat([]byte{0}, 16)) // two frames
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !boundary {
		t.Error("boundary = false, want true for a SpeechStart frame")
	}

	boundary, err = d.Process(bytes.Repeat([]byte{0}, 8)) // exhausted: Silence
	if err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if boundary {
		t.Error("boundary = true for a silence-only pass")
	}
}

// Detector state must be reset once per processing pass.
func TestSpeechDetector_ResetsPerPass(t *testing.T) {
	t.Parallel()

	sess := &vadmock.Session{}
	d, err := newSpeechDetector(&vadmock.Engine{SessionResult: sess}, 16000, 4)
	if err != nil {
		t.Fatalf("newSpeechDetector() error: %v", err)
	}

	for range 3 {
		if _, err := d.Process(bytes.Repeat([]byte{0}, 8)); err != nil {
			t.Fatalf("Process() error: %v", err)
		}
	}
	if sess.ResetCount != 3 {
		t.Errorf("resets = %d, want one per pass (3)", sess.ResetCount)
	}
}

func TestSpeechDetector_Close(t *testing.T) {
	t.Parallel()

	sess := &vadmock.Session{}
	d, err := newSpeechDetector(&vadmock.Engine{SessionResult: sess}, 16000, 4)
	if err != nil {
		t.Fatalf("newSpeechDetector() error: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if sess.CloseCount != 1 {
		t.Errorf("close count = %d, want 1", sess.CloseCount)
	}
}
