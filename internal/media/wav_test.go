package media

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeWAV_Header(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 3200) // 100ms at 16kHz mono
	wav := EncodeWAV(pcm, 16000, 1)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length = %d, want %d", len(wav), 44+len(pcm))
	}
	if !bytes.Equal(wav[0:4], []byte("RIFF")) || !bytes.Equal(wav[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint16(wav[22:24]); got != 1 {
		t.Errorf("channels = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Errorf("byte rate = %d, want 32000", got)
	}
}

func TestEncodeWAV_EmptyPCM(t *testing.T) {
	t.Parallel()

	wav := EncodeWAV(nil, 16000, 1)
	if len(wav) != 44 {
		t.Fatalf("header-only wav length = %d, want 44", len(wav))
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != 0 {
		t.Errorf("data size = %d, want 0", got)
	}
}

func TestTimeStretch_ShortensAudio(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 1200*2)
	out := TimeStretch(pcm, 1.2)
	if got, want := len(out)/2, 1000; got != want {
		t.Errorf("stretched samples = %d, want %d", got, want)
	}
}

func TestTimeStretch_UnitSpeedIsIdentity(t *testing.T) {
	t.Parallel()

	pcm := []byte{1, 2, 3, 4}
	if out := TimeStretch(pcm, 1.0); !bytes.Equal(out, pcm) {
		t.Errorf("TimeStretch(speed=1) = %v, want input unchanged", out)
	}
	if out := TimeStretch(pcm, 0); !bytes.Equal(out, pcm) {
		t.Errorf("TimeStretch(speed=0) = %v, want input unchanged", out)
	}
}

func TestTimeStretch_PreservesConstantSignal(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 400)
	for i := 0; i < len(pcm); i += 2 {
		binary.LittleEndian.PutUint16(pcm[i:], uint16(int16(1000)))
	}
	out := TimeStretch(pcm, 2.0)
	for i := 0; i < len(out); i += 2 {
		if s := int16(binary.LittleEndian.Uint16(out[i:])); s != 1000 {
			t.Fatalf("sample %d = %d, want 1000", i/2, s)
		}
	}
}

func TestWriteWAV_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "answer.wav")
	pcm := make([]byte, 640)
	if err := WriteWAV(path, pcm, 16000, 1.0); err != nil {
		t.Fatalf("WriteWAV() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading wav: %v", err)
	}
	if len(data) != 44+len(pcm) {
		t.Errorf("file length = %d, want %d", len(data), 44+len(pcm))
	}
}

func TestWriteWAV_EmptyBufferStillWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := WriteWAV(path, nil, 16000, 1.2); err != nil {
		t.Fatalf("WriteWAV() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading wav: %v", err)
	}
	if len(data) != 44 {
		t.Errorf("file length = %d, want header-only 44", len(data))
	}
}

func TestWriteRaw(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "camera.raw")
	if err := WriteRaw(path, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteRaw() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading raw: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("file = %v, want [1 2 3]", data)
	}
}
