package media

import (
	"encoding/binary"
	"fmt"
	"os"
)

const bitsPerSample = 16

// TimeStretch speeds up 16-bit mono PCM by the given factor using linear
// interpolation. A speed of 1.2 shortens the audio to 1/1.2 of its original
// duration (pitch shifts with it, which is acceptable for speech review).
// Speeds ≤ 0 or exactly 1 return the input unchanged.
func TimeStretch(pcm []byte, speed float64) []byte {
	if speed <= 0 || speed == 1 || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(float64(srcSamples) / speed)
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	for i := range dstSamples {
		srcPos := float64(i) * speed
		srcIdx := int(srcPos)
		if srcIdx >= srcSamples {
			srcIdx = srcSamples - 1
		}
		frac := srcPos - float64(srcIdx)

		s0 := int16(pcm[srcIdx*2]) | int16(pcm[srcIdx*2+1])<<8
		var s1 int16
		if srcIdx+1 < srcSamples {
			s1 = int16(pcm[(srcIdx+1)*2]) | int16(pcm[(srcIdx+1)*2+1])<<8
		} else {
			s1 = s0
		}

		interpolated := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(interpolated)
		out[i*2+1] = byte(interpolated >> 8)
	}
	return out
}

// EncodeWAV wraps raw 16-bit signed little-endian PCM data in a standard
// RIFF/WAV container. An empty pcm slice yields a header-only WAV, which
// downstream tools treat as zero-length audio rather than a corrupt file.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	bps := bitsPerSample
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                 // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))   // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate)) // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))   // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign)) // block align
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bps))        // bits per sample

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// WriteWAV time-stretches the PCM by speed and writes it to path as a mono
// WAV file. Empty PCM still produces a valid header-only file.
func WriteWAV(path string, pcm []byte, sampleRate int, speed float64) error {
	wav := EncodeWAV(TimeStretch(pcm, speed), sampleRate, 1)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return fmt.Errorf("media: write wav: %w", err)
	}
	return nil
}

// WriteRaw writes accumulated media bytes to path unmodified. Used for the
// camera stream, which is encoded to a container format by a separate step.
func WriteRaw(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("media: write raw: %w", err)
	}
	return nil
}
