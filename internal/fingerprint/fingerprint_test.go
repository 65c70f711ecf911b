package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afsispa/soundtrace/internal/config"
	"github.com/afsispa/soundtrace/internal/peaks"
)

func TestGenerateEmptyForNoPeaks(t *testing.T) {
	cfg := config.Default()
	assert.Nil(t, Generate(nil, cfg))
}

func TestGenerateRespectsDTWindowAndFanout(t *testing.T) {
	cfg := config.Default()
	cfg.DTMin = 2
	cfg.DTMaxSeconds = 100 // wide window; DTMaxFrames = DTMaxSeconds*SR/hop, read back below
	cfg.Fanout = 2

	dtMax := cfg.DTMaxFrames()
	ps := []peaks.Peak{
		{Freq: 10, Time: 0},
		{Freq: 11, Time: 1},           // dt=1 < DTMin, skipped
		{Freq: 12, Time: 3},           // dt=3, within window
		{Freq: 13, Time: 5},           // dt=5, within window
		{Freq: 14, Time: 7},           // dt=7, within window but fanout=2 already hit
		{Freq: 15, Time: dtMax + 100}, // far beyond dt max
	}

	fps := Generate(ps, cfg)
	require.NotEmpty(t, fps)
	for _, fp := range fps {
		assert.GreaterOrEqual(t, fp.DT, cfg.DTMin)
		assert.LessOrEqual(t, fp.DT, dtMax)
	}

	anchorCount := 0
	for _, fp := range fps {
		if fp.T1 == 0 {
			anchorCount++
		}
	}
	assert.LessOrEqual(t, anchorCount, cfg.Fanout)
}

func TestGenerateDoesNotMutateInput(t *testing.T) {
	cfg := config.Default()
	ps := []peaks.Peak{
		{Freq: 5, Time: 3},
		{Freq: 1, Time: 1},
	}
	original := append([]peaks.Peak(nil), ps...)

	Generate(ps, cfg)
	assert.Equal(t, original, ps)
}

func TestHashKeyPacksAndIsStable(t *testing.T) {
	fp := Fingerprint{F1: 100, F2: 200, DT: 50, T1: 999}
	a := fp.HashKey()
	b := fp.HashKey()
	assert.Equal(t, a, b)

	other := Fingerprint{F1: 100, F2: 200, DT: 51, T1: 999}
	assert.NotEqual(t, a, other.HashKey(), "dt participates in the key")
}

func TestHashKeyIgnoresAnchorTime(t *testing.T) {
	a := Fingerprint{F1: 1, F2: 2, DT: 3, T1: 10}
	b := Fingerprint{F1: 1, F2: 2, DT: 3, T1: 99999}
	assert.Equal(t, a.HashKey(), b.HashKey())
}
