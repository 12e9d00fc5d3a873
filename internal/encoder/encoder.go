// Package encoder converts a session's accumulated raw camera bytes into a
// playable video container.
package encoder

import (
	"context"
	"fmt"
	"os/exec"
)

// Encoder produces a playable video file from raw recorded bytes.
type Encoder interface {
	// Encode reads rawPath and writes a playable container to outPath.
	Encode(ctx context.Context, rawPath, outPath string) error
}

// Option is a functional option for configuring FFmpeg.
type Option func(*FFmpeg)

// WithBinary overrides the ffmpeg binary path. Defaults to "ffmpeg" resolved
// via PATH.
func WithBinary(path string) Option {
	return func(f *FFmpeg) {
		f.bin = path
	}
}

// WithFrameRate sets the output frame rate. Defaults to 30.
func WithFrameRate(fps int) Option {
	return func(f *FFmpeg) {
		f.frameRate = fps
	}
}

// WithCRF sets the H.264 constant rate factor. Defaults to 23.
func WithCRF(crf int) Option {
	return func(f *FFmpeg) {
		f.crf = crf
	}
}

// FFmpeg implements Encoder by shelling out to the ffmpeg binary. The raw
// input is transcoded to H.264 in an MP4 container.
type FFmpeg struct {
	bin       string
	frameRate int
	crf       int
}

// Compile-time interface check.
var _ Encoder = (*FFmpeg)(nil)

// NewFFmpeg creates an FFmpeg encoder.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		bin:       "ffmpeg",
		frameRate: 30,
		crf:       23,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Encode implements Encoder.
func (f *FFmpeg) Encode(ctx context.Context, rawPath, outPath string) error {
	cmd := exec.CommandContext(ctx, f.bin, f.args(rawPath, outPath)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("encoder: ffmpeg: %w: %s", err, out)
	}
	return nil
}

func (f *FFmpeg) args(rawPath, outPath string) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-i", rawPath,
		"-vcodec", "libx264",
		"-crf", fmt.Sprint(f.crf),
		"-f", "mp4",
		"-r", fmt.Sprint(f.frameRate),
		outPath,
	}
}
