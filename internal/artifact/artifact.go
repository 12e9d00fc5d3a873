// Package artifact manages the on-disk output directory of a finished
// interview session: transcript, feedback, recorded audio, and video files.
//
// Artifacts live under {baseDir}/{interviewID}-{sessionID}/ so reruns of the
// same interview never clobber each other. Database persistence is separate;
// the files exist so a failed database write never loses an interview.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Well-known artifact file names.
const (
	TranscriptFile = "transcript.json"
	FeedbackFile   = "feedback.json"
	AudioFile      = "audio.wav"
	RawVideoFile   = "video.raw"
	VideoFile      = "video.mp4"
	AnswerWAVFile  = "latest_answer.wav"
)

// Writer writes artifacts for one session into its output directory.
type Writer struct {
	dir string
}

// NewWriter creates the session output directory under baseDir and returns a
// Writer rooted there.
func NewWriter(baseDir, interviewID, sessionID string) (*Writer, error) {
	dir := filepath.Join(baseDir, fmt.Sprintf("%s-%s", interviewID, sessionID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: create output dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the session output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the absolute path of a named artifact inside the session
// directory.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteJSON marshals v and writes it to the named artifact file.
func (w *Writer) WriteJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("artifact: marshal %s: %w", name, err)
	}
	if err := os.WriteFile(w.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", name, err)
	}
	return nil
}
