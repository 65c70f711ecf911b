// Package fingerprint implements spec.md §4.3's anchor-target fan-out:
// each peak, sorted into (t, f) order, is paired as an anchor with up to
// Fanout later peaks (targets) whose time delta falls in
// [DTMin, DTMaxFrames], producing hashable (f1, f2, dt, t1) quadruples.
//
// Grounded on original_source/fingerprinting.py's anchor/target double
// loop and algorithm/main.go's makeLandmarkHashesFast/packHash.
package fingerprint

import (
	"sort"

	"github.com/afsispa/soundtrace/internal/config"
	"github.com/afsispa/soundtrace/internal/peaks"
)

// Fingerprint is spec.md §3's (f1, f2, dt, t1) quadruple.
type Fingerprint struct {
	F1, F2 int
	DT     int
	T1     int
}

const (
	freqBits = 11
	dtBits   = 8
	freqMask = 1<<freqBits - 1
	dtMask   = 1<<dtBits - 1
)

// HashKey packs (f1, f2, dt) into the 32-bit key of spec.md §3. f1 and f2
// are masked to 11 bits (N_FFT=2048 gives bins 0..1024) and dt to 8 bits
// (dt is bounded below 256 frames by DTMaxFrames in any sane
// configuration). The exact packing is an implementation detail, not part
// of the engine's external contract.
func (fp Fingerprint) HashKey() uint32 {
	return (uint32(fp.F1)&freqMask)<<(freqBits+dtBits) |
		(uint32(fp.F2)&freqMask)<<dtBits |
		(uint32(fp.DT) & dtMask)
}

// Generate produces the fingerprints for a peak set per spec.md §4.3.
// Peaks are sorted by (t, f) ascending; the input slice is not mutated.
func Generate(ps []peaks.Peak, cfg config.Config) []Fingerprint {
	if len(ps) == 0 {
		return nil
	}
	sorted := make([]peaks.Peak, len(ps))
	copy(sorted, ps)
	sort.Slice(sorted, func(i, j int) bool {
		ti, fi := sorted[i].Time, sorted[i].Freq
		tj, fj := sorted[j].Time, sorted[j].Freq
		if ti != tj {
			return ti < tj
		}
		return fi < fj
	})

	dtMax := cfg.DTMaxFrames()
	dtMin := cfg.DTMin

	var out []Fingerprint
	for i, anchor := range sorted {
		emitted := 0
		for j := i + 1; j < len(sorted) && emitted < cfg.Fanout; j++ {
			target := sorted[j]
			dt := target.Time - anchor.Time
			if dt < dtMin {
				continue
			}
			if dt > dtMax {
				break
			}
			out = append(out, Fingerprint{
				F1: anchor.Freq,
				F2: target.Freq,
				DT: dt,
				T1: anchor.Time,
			})
			emitted++
		}
	}
	return out
}
