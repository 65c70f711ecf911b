package engine

import (
	"github.com/afsispa/soundtrace/internal/config"
	"github.com/afsispa/soundtrace/internal/fingerprint"
	"github.com/afsispa/soundtrace/internal/index"
	"github.com/afsispa/soundtrace/internal/matcher"
	"github.com/afsispa/soundtrace/internal/peaks"
	"github.com/afsispa/soundtrace/internal/spectral"
)

// Engine is spec.md §4's top-level pipeline: decode is the caller's job
// (internal/audioio), everything from the spectral front-end onward lives
// here. Grounded on algorithm/main.go's buildIndex/matchFileTopK, which
// chain the same stages but as free functions over a single *FingerprintDB
// rather than a long-lived Engine value.
type Engine struct {
	cfg config.Config
	idx index.Index
}

// New wires cfg and idx into an Engine. idx is not owned: callers are
// responsible for closing it (relevant for index.BadgerIndex).
func New(cfg config.Config, idx index.Index) *Engine {
	return &Engine{cfg: cfg, idx: idx}
}

// Ingest runs the full front-end over samples and inserts the resulting
// fingerprints under a fresh track_id, per spec.md §4's ingest operation.
func (e *Engine) Ingest(name string, samples []float32, sampleRate int, durationSeconds float64) (index.TrackMeta, error) {
	track := index.TrackMeta{Name: name, DurationSeconds: durationSeconds}

	fps, err := e.analyze(samples, sampleRate)
	if err != nil {
		return index.TrackMeta{}, err
	}

	inserted, err := e.idx.Insert(track, fps)
	if err != nil {
		return index.TrackMeta{}, wrapErr(KindIOError, "ingest", err)
	}
	return inserted, nil
}

// Recognize runs the full front-end over a query clip and votes it
// against the index, per spec.md §4's recognize operation.
func (e *Engine) Recognize(samples []float32, sampleRate int) (matcher.Result, error) {
	fps, err := e.analyze(samples, sampleRate)
	if err != nil {
		return matcher.Result{}, err
	}
	if len(fps) == 0 {
		return matcher.Result{Matched: false}, nil
	}
	return matcher.Recognize(fps, e.idx, e.cfg.HopSize(), e.cfg.SampleRate), nil
}

// ListTracks returns every ingested track's metadata.
func (e *Engine) ListTracks() []index.TrackMeta {
	return e.idx.Tracks()
}

// Stats returns the index's track and distinct-hash-key counts.
func (e *Engine) Stats() (trackCount, hashCount int) {
	return e.idx.Stats()
}

// RemoveTrack deletes a previously ingested track and its postings.
func (e *Engine) RemoveTrack(trackID uint32) error {
	if err := e.idx.RemoveTrack(trackID); err != nil {
		return wrapErr(KindInvalidInput, "remove_track", err)
	}
	return nil
}

// analyze runs the spectral front-end, peak picker, and fingerprint
// generator in sequence — spec.md §4.1-4.3, shared by Ingest and
// Recognize.
func (e *Engine) analyze(samples []float32, sampleRate int) ([]fingerprint.Fingerprint, error) {
	if sampleRate != e.cfg.SampleRate {
		return nil, wrapErr(KindInvalidInput, "analyze", &spectral.InvalidInputError{
			Reason: "sample rate mismatch",
		})
	}
	grid, err := spectral.Compute(samples, sampleRate, e.cfg)
	if err != nil {
		return nil, wrapErr(KindInvalidInput, "analyze", err)
	}
	ps := peaks.Pick(grid, e.cfg)
	return fingerprint.Generate(ps, e.cfg), nil
}
