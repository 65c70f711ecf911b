// Package matcher implements spec.md §4.5's offset-histogram matcher:
// each query fingerprint that hits the index casts a vote for
// (track_id, offset), and the (track, offset) pair with the most votes
// wins — time-shift invariant, not tempo/pitch invariant.
//
// Grounded on original_source/core/matcher.py's query_multi_song voting
// loop and original_source/core/utils.py's confidence_label/
// seconds_to_mmss. Ties are broken per spec.md §4.5 step 3's literal
// rule: votes descending, then lexicographic (track_id, offset)
// ascending.
package matcher

import (
	"fmt"
	"sort"

	"github.com/afsispa/soundtrace/internal/fingerprint"
	"github.com/afsispa/soundtrace/internal/index"
)

// Confidence is spec.md §4.5's score-tier label.
type Confidence string

const (
	NoMatch           Confidence = "no_match"
	LowConfidence     Confidence = "low_confidence"
	MediumConfidence  Confidence = "medium_confidence"
	HighConfidence    Confidence = "high_confidence"
)

// Confidence thresholds, exactly original_source/core/utils.py's
// confidence_label: <200 no match, <1000 low, <3000 medium, else high.
const (
	lowThreshold    = 200
	mediumThreshold = 1000
	highThreshold   = 3000
)

func confidenceFor(score int) Confidence {
	switch {
	case score < lowThreshold:
		return NoMatch
	case score < mediumThreshold:
		return LowConfidence
	case score < highThreshold:
		return MediumConfidence
	default:
		return HighConfidence
	}
}

// Candidate is one scored (track, offset) hypothesis.
type Candidate struct {
	Track         index.TrackMeta
	Votes         int
	TotalVotes    int
	OffsetFrames  int
	OffsetSeconds float64
	Confidence    Confidence
}

// Result is spec.md §4.5's recognize() outcome: the best candidate, if
// any, plus the full ranked candidate list for callers that want runner-up
// detail (e.g. the CLI's `recognize --top` listing).
type Result struct {
	Matched    bool
	Best       Candidate
	Candidates []Candidate
}

type voteKey struct {
	trackID uint32
	offset  int
}

// Recognize votes every query fingerprint against idx and returns the
// ranked candidates, per original_source/core/matcher.py's
// query_multi_song.
func Recognize(queryFPs []fingerprint.Fingerprint, idx index.Index, hopSize, sampleRate int) Result {
	votes := make(map[voteKey]int)
	trackTotal := make(map[uint32]int)

	for _, fp := range queryFPs {
		for _, p := range idx.Probe(fp.HashKey()) {
			offset := int(p.AnchorFrame) - fp.T1
			votes[voteKey{trackID: p.TrackID, offset: offset}]++
			trackTotal[p.TrackID]++
		}
	}
	if len(votes) == 0 {
		return Result{Matched: false}
	}

	type raw struct {
		trackID uint32
		offset  int
		votes   int
		total   int
	}
	raws := make([]raw, 0, len(votes))
	for k, v := range votes {
		raws = append(raws, raw{trackID: k.trackID, offset: k.offset, votes: v, total: trackTotal[k.trackID]})
	}
	sort.Slice(raws, func(i, j int) bool {
		if raws[i].votes != raws[j].votes {
			return raws[i].votes > raws[j].votes
		}
		if raws[i].trackID != raws[j].trackID {
			return raws[i].trackID < raws[j].trackID
		}
		return raws[i].offset < raws[j].offset
	})

	bestByTrack := make(map[uint32]raw)
	for _, r := range raws {
		if _, ok := bestByTrack[r.trackID]; !ok {
			bestByTrack[r.trackID] = r
		}
	}

	tracksByID := make(map[uint32]index.TrackMeta)
	for _, t := range idx.Tracks() {
		tracksByID[t.ID] = t
	}

	candidates := make([]Candidate, 0, len(bestByTrack))
	for _, r := range bestByTrack {
		candidates = append(candidates, Candidate{
			Track:         tracksByID[r.trackID],
			Votes:         r.votes,
			TotalVotes:    r.total,
			OffsetFrames:  r.offset,
			OffsetSeconds: float64(r.offset*hopSize) / float64(sampleRate),
			Confidence:    confidenceFor(r.votes),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Votes != candidates[j].Votes {
			return candidates[i].Votes > candidates[j].Votes
		}
		if candidates[i].Track.ID != candidates[j].Track.ID {
			return candidates[i].Track.ID < candidates[j].Track.ID
		}
		return candidates[i].OffsetFrames < candidates[j].OffsetFrames
	})

	best := candidates[0]
	return Result{
		Matched:    best.Confidence != NoMatch,
		Best:       best,
		Candidates: candidates,
	}
}

// FormatPosition renders an offset in seconds as M:SS, per
// original_source/core/utils.py's seconds_to_mmss.
func FormatPosition(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = -total
	}
	minutes := total / 60
	secs := total % 60
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
