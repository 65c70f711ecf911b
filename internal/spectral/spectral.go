// Package spectral implements the audio-to-spectrogram transform of
// spec.md §4.1: a Hann-windowed STFT with centered, reflection-padded
// framing, converted to a dB grid normalized so the loudest cell is 0 dB.
//
// Grounded on algorithm/main.go's stft/stftWithPlan (gonum backend) and
// indexer/indexer.go + matcher/matcher.go's spectrogram() (go-dsp backend);
// this package keeps both FFT libraries the teacher pack used across its
// submodules, selectable via config.FFTBackend.
package spectral

import (
	"fmt"
	"math"

	"github.com/afsispa/soundtrace/internal/config"
)

const epsilon = 1e-10

// Grid is a two-dimensional dB-magnitude spectrogram, F frequency bins by
// T time frames, stored frequency-major (spec.md §3: cell (f, t)).
type Grid struct {
	F, T int
	data []float64
}

// NewGrid allocates an empty f-by-t Grid. Exposed primarily so tests can
// build fixed grids without routing through Compute.
func NewGrid(f, t int) Grid {
	return Grid{F: f, T: t, data: make([]float64, f*t)}
}

// At returns the dB magnitude at frequency bin f, frame t.
func (g Grid) At(f, t int) float64 {
	return g.data[f*g.T+t]
}

// Set writes the dB magnitude at frequency bin f, frame t.
func (g Grid) Set(f, t int, v float64) {
	g.data[f*g.T+t] = v
}

// Column returns the magnitudes across all frequency bins for frame t, in
// increasing frequency order.
func (g Grid) Column(t int, dst []float64) []float64 {
	if cap(dst) < g.F {
		dst = make([]float64, g.F)
	}
	dst = dst[:g.F]
	for f := 0; f < g.F; f++ {
		dst[f] = g.data[f*g.T+t]
	}
	return dst
}

// fftBackend computes the one-sided complex spectrum (length n/2+1) of a
// single real, already-windowed frame of length n.
type fftBackend interface {
	transform(frame []float64) []complex128
}

func backendFor(name config.FFTBackend) (fftBackend, error) {
	switch name {
	case "", config.FFTBackendGonum:
		return newGonumBackend(), nil
	case config.FFTBackendGoDSP:
		return goDSPBackend{}, nil
	default:
		return nil, fmt.Errorf("spectral: unknown fft backend %q", name)
	}
}

// Compute transforms mono samples at sample rate sr into a dB spectrogram
// per spec.md §4.1. It fails with InvalidInputError if there are fewer
// samples than one frame or sr does not match cfg.SampleRate.
func Compute(samples []float32, sr int, cfg config.Config) (Grid, error) {
	if sr != cfg.SampleRate {
		return Grid{}, &InvalidInputError{Reason: fmt.Sprintf("sample rate %d does not match configured %d", sr, cfg.SampleRate)}
	}
	if len(samples) < 1 {
		return Grid{}, &InvalidInputError{Reason: "no samples"}
	}
	nfft := cfg.NFFT
	hop := cfg.HopSize()
	if len(samples) < nfft {
		return Grid{}, &InvalidInputError{Reason: "fewer samples than one FFT frame"}
	}

	backend, err := backendFor(cfg.FFTBackend)
	if err != nil {
		return Grid{}, err
	}

	padded := reflectPad(samples, nfft/2)
	numFrames := 1 + (len(padded)-nfft)/hop
	if numFrames < 1 {
		numFrames = 1
	}

	win := hannWindow(nfft)
	numBins := nfft/2 + 1
	grid := NewGrid(numBins, numFrames)

	frame := make([]float64, nfft)
	globalMax := math.Inf(-1)
	for t := 0; t < numFrames; t++ {
		start := t * hop
		for i := 0; i < nfft; i++ {
			frame[i] = float64(padded[start+i]) * win[i]
		}
		coeffs := backend.transform(frame)
		for f := 0; f < numBins; f++ {
			mag := cmplxAbs(coeffs[f])
			db := 20 * math.Log10(math.Max(mag, epsilon))
			grid.Set(f, t, db)
			if db > globalMax {
				globalMax = db
			}
		}
	}

	// Normalize so the loudest cell is 0 dB; makes AmplitudeFloorDB a
	// relative floor (spec.md §4.1 / Open Question in spec.md §9).
	if !math.IsInf(globalMax, -1) {
		for i := range grid.data {
			grid.data[i] -= globalMax
		}
	}
	return grid, nil
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

// hannWindow returns a symmetric Hann window of length n.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// reflectPad pads x by n samples on each side using edge reflection, the
// same centered-framing convention spec.md §4.1 calls for.
func reflectPad(x []float32, n int) []float32 {
	if n <= 0 {
		out := make([]float32, len(x))
		copy(out, x)
		return out
	}
	out := make([]float32, len(x)+2*n)
	copy(out[n:n+len(x)], x)
	for i := 0; i < n; i++ {
		// Left edge: reflect without repeating the boundary sample.
		srcL := i + 1
		if srcL >= len(x) {
			srcL = len(x) - 1
		}
		out[n-1-i] = x[srcL]

		srcR := len(x) - 2 - i
		if srcR < 0 {
			srcR = 0
		}
		out[n+len(x)+i] = x[srcR]
	}
	return out
}

// InvalidInputError is spec.md §7's InvalidInput error kind, raised when
// samples are too short or the sample rate does not match configuration.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}
