// Package audioio decodes WAV files to the mono float32 samples the
// engine's spectral front-end expects.
//
// Grounded on other_examples/rohitxdev-gozam__app.go's
// wav.NewDecoder/FullPCMBuffer/bit-depth normalization, generalized to
// handle multi-channel input by downmixing (spec.md's front-end is
// defined over a single channel).
package audioio

import (
	"fmt"
	"io"

	"github.com/go-audio/wav"
)

// DecodedAudio is a decoded clip's mono samples and its native sample
// rate, ready to hand to the engine (which validates/rejects a sample
// rate mismatch against the configured front-end).
type DecodedAudio struct {
	Samples    []float32
	SampleRate int
	Duration   float64
}

// DecodeWAV reads a PCM WAV file from r and downmixes it to mono.
func DecodeWAV(r io.ReadSeeker) (DecodedAudio, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return DecodedAudio{}, fmt.Errorf("audioio: not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return DecodedAudio{}, fmt.Errorf("audioio: read PCM buffer: %w", err)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float32(int(1) << (buf.SourceBitDepth - 1))
	if scale == 0 {
		scale = 1
	}

	frameCount := len(buf.Data) / channels
	samples := make([]float32, frameCount)
	for i := 0; i < frameCount; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float32(channels)
	}

	sampleRate := buf.Format.SampleRate
	duration := float64(frameCount) / float64(sampleRate)
	return DecodedAudio{Samples: samples, SampleRate: sampleRate, Duration: duration}, nil
}
