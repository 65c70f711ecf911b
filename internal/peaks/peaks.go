// Package peaks implements spec.md §4.2's banded local-maximum peak picker:
// Shazam's "constellation map". The frequency axis is split into
// config.NumBands contiguous bands and each band is scanned independently
// so a handful of loud low-frequency peaks cannot starve the hash budget.
//
// Grounded on original_source/fingerprinting.py's per-band
// scipy.ndimage.maximum_filter pass and algorithm/main.go's
// frameLocalMaxima/findSpectralPeaksTopK neighborhood scan.
package peaks

import (
	"fmt"

	"github.com/afsispa/soundtrace/internal/config"
	"github.com/afsispa/soundtrace/internal/spectral"
)

// Peak is spec.md §3's (f, t, a) triple.
type Peak struct {
	Freq  int
	Time  int
	AmpDB float64
}

// EmptyInputError is spec.md §4.2's EmptyInput error kind.
type EmptyInputError struct {
	Frames, Required int
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("peaks: grid has %d frames, need at least %d", e.Frames, e.Required)
}

// Pick returns the peaks of grid per cfg's neighborhood and amplitude
// settings. A grid too short to hold a full time neighborhood yields an
// empty (not nil-error) set, matching spec.md's default behavior.
func Pick(grid spectral.Grid, cfg config.Config) []Peak {
	ps, _ := pick(grid, cfg)
	return ps
}

// PickStrict behaves like Pick but returns EmptyInputError instead of an
// empty set when the grid is too short, for callers that "demand peaks"
// per spec.md §4.2.
func PickStrict(grid spectral.Grid, cfg config.Config) ([]Peak, error) {
	required := requiredFrames(cfg)
	if grid.T < required {
		return nil, &EmptyInputError{Frames: grid.T, Required: required}
	}
	return pick(grid, cfg)
}

func requiredFrames(cfg config.Config) int {
	need := 2*cfg.TimeNeighborhood + 1
	if need < 1 {
		need = 1
	}
	return need
}

func pick(grid spectral.Grid, cfg config.Config) ([]Peak, error) {
	if grid.T < requiredFrames(cfg) {
		return nil, nil
	}

	numBands := cfg.NumBands
	if numBands < 1 {
		numBands = 1
	}
	bandSize := grid.F / numBands
	if bandSize < 1 {
		bandSize = 1
	}

	var out []Peak
	for b := 0; b < numBands; b++ {
		fStart := b * bandSize
		fEnd := fStart + bandSize
		if b == numBands-1 || fEnd > grid.F {
			fEnd = grid.F
		}
		if fStart >= fEnd {
			continue
		}
		out = append(out, pickBand(grid, cfg, fStart, fEnd)...)
	}
	return out, nil
}

// pickBand scans band [fStart, fEnd) of grid for cells that equal the max
// of their ±FreqNeighborhood x ±TimeNeighborhood window (window's frequency
// side clipped to the band; time side clipped to the grid's first and last
// frames) and clear the amplitude floor.
func pickBand(grid spectral.Grid, cfg config.Config, fStart, fEnd int) []Peak {
	var out []Peak
	for t := 0; t < grid.T; t++ {
		tLo := t - cfg.TimeNeighborhood
		tHi := t + cfg.TimeNeighborhood
		if tLo < 0 {
			tLo = 0
		}
		if tHi >= grid.T {
			tHi = grid.T - 1
		}
		for f := fStart; f < fEnd; f++ {
			v := grid.At(f, t)
			if v < cfg.AmplitudeFloorDB {
				continue
			}
			fLo := f - cfg.FreqNeighborhood
			fHi := f + cfg.FreqNeighborhood
			if fLo < fStart {
				fLo = fStart
			}
			if fHi >= fEnd {
				fHi = fEnd - 1
			}
			if isLocalMax(grid, v, fLo, fHi, tLo, tHi) {
				out = append(out, Peak{Freq: f, Time: t, AmpDB: v})
			}
		}
	}
	return out
}

func isLocalMax(grid spectral.Grid, v float64, fLo, fHi, tLo, tHi int) bool {
	for tt := tLo; tt <= tHi; tt++ {
		for ff := fLo; ff <= fHi; ff++ {
			if grid.At(ff, tt) > v {
				return false
			}
		}
	}
	return true
}

// SortKey orders peaks by (t, f) ascending, spec.md §3's canonical order.
func SortKey(p Peak) (int, int) { return p.Time, p.Freq }
