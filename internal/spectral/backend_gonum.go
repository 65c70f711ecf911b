package spectral

import "gonum.org/v1/gonum/dsp/fourier"

// gonumBackend wraps gonum's real-input FFT plan, grounded on
// algorithm/main.go's stftWithPlan which builds one *fourier.FFT per
// worker goroutine and reuses it across frames.
type gonumBackend struct {
	plans map[int]*fourier.FFT
}

func newGonumBackend() *gonumBackend {
	return &gonumBackend{plans: make(map[int]*fourier.FFT)}
}

func (b *gonumBackend) transform(frame []float64) []complex128 {
	n := len(frame)
	plan, ok := b.plans[n]
	if !ok {
		plan = fourier.NewFFT(n)
		b.plans[n] = plan
	}
	return plan.Coefficients(nil, frame)
}
