package encoder

import (
	"reflect"
	"testing"
)

func TestFFmpeg_Args(t *testing.T) {
	t.Parallel()

	f := NewFFmpeg()
	got := f.args("/out/video.raw", "/out/video.mp4")
	want := []string{
		"-y",
		"-loglevel", "error",
		"-i", "/out/video.raw",
		"-vcodec", "libx264",
		"-crf", "23",
		"-f", "mp4",
		"-r", "30",
		"/out/video.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestFFmpeg_Options(t *testing.T) {
	t.Parallel()

	f := NewFFmpeg(WithBinary("/opt/ffmpeg/bin/ffmpeg"), WithFrameRate(24), WithCRF(18))
	if f.bin != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("bin = %q", f.bin)
	}
	args := f.args("in.raw", "out.mp4")
	assertPair := func(flag, want string) {
		t.Helper()
		for i, a := range args {
			if a == flag {
				if args[i+1] != want {
					t.Errorf("%s = %q, want %q", flag, args[i+1], want)
				}
				return
			}
		}
		t.Errorf("flag %s missing from args %v", flag, args)
	}
	assertPair("-crf", "18")
	assertPair("-r", "24")
}
