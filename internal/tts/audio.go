package tts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

const bitDepth = 16

// decodeMP3 decodes MP3 audio into mono 16-bit samples. The decoder
// always yields interleaved stereo; the left channel is kept.
func decodeMP3(data []byte) ([]int, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("decoding mp3: %w", err)
	}

	// Length is in bytes, 4 per stereo frame.
	samples := make([]int, 0, decoder.Length()/4)
	buf := make([]byte, 4096)
	for {
		n, err := decoder.Read(buf)
		for i := 0; i+3 < n; i += 4 {
			samples = append(samples, int(int16(buf[i])|int16(buf[i+1])<<8))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("reading mp3 data: %w", err)
		}
	}

	return samples, decoder.SampleRate(), nil
}

// SampleDuration converts a mono sample count at a rate to wall time.
func SampleDuration(samples, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(rate) * float64(time.Second))
}

// WriteWAV writes mono 16-bit samples as a WAV file.
func WriteWAV(path string, samples []int, rate int) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, rate, bitDepth, 1, 1)
	defer enc.Close()

	return enc.Write(&audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  rate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	})
}
