package spectral

import "github.com/mjibson/go-dsp/fft"

// goDSPBackend uses mjibson/go-dsp's FFTReal, grounded on
// indexer/indexer.go and matcher/matcher.go's spectrogram(), which both
// call fft.FFTReal directly per frame rather than reusing a plan.
type goDSPBackend struct{}

func (goDSPBackend) transform(frame []float64) []complex128 {
	full := fft.FFTReal(frame)
	return full[:len(frame)/2+1]
}
