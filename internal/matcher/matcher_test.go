package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afsispa/soundtrace/internal/fingerprint"
	"github.com/afsispa/soundtrace/internal/index"
)

const (
	testHopSize    = 512
	testSampleRate = 44100
)

func buildFingerprints(anchorTimes []int) []fingerprint.Fingerprint {
	fps := make([]fingerprint.Fingerprint, len(anchorTimes))
	for i, t := range anchorTimes {
		fps[i] = fingerprint.Fingerprint{F1: 10, F2: 20, DT: 5, T1: t}
	}
	return fps
}

// anchorTimes returns n anchor frames start, start+10, start+20, ...
// Enough of them (n >= 200) lets the aligned offset reach the matcher's
// 200-vote Low threshold, below which Recognize reports no match.
func anchorTimes(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + 10*i
	}
	return out
}

func TestRecognizeNoMatchWithEmptyIndex(t *testing.T) {
	idx := index.NewMemIndex()
	result := Recognize(buildFingerprints([]int{0, 10, 20}), idx, testHopSize, testSampleRate)
	assert.False(t, result.Matched)
}

func TestRecognizeFindsExactSelfMatch(t *testing.T) {
	idx := index.NewMemIndex()
	trackFPs := buildFingerprints(anchorTimes(0, 250))
	track, err := idx.Insert(index.TrackMeta{Name: "song"}, trackFPs)
	require.NoError(t, err)

	// Query with the identical fingerprints: every one should vote for
	// offset 0 against "song".
	result := Recognize(trackFPs, idx, testHopSize, testSampleRate)
	require.True(t, result.Matched)
	assert.Equal(t, track.ID, result.Best.Track.ID)
	assert.Equal(t, 0, result.Best.OffsetFrames)
	assert.Equal(t, len(trackFPs), result.Best.Votes)
}

func TestRecognizeIsTimeShiftInvariant(t *testing.T) {
	// The track was ingested with its anchors starting at frame `shift`
	// (e.g. the song starts 100 frames into the original file). A query
	// clip beginning at the song's own frame 0 should still align, with
	// OffsetFrames reporting the shift.
	const shift = 100
	idx := index.NewMemIndex()
	dbFPs := buildFingerprints(anchorTimes(shift, 250))
	_, err := idx.Insert(index.TrackMeta{Name: "song"}, dbFPs)
	require.NoError(t, err)

	queryFPs := buildFingerprints(anchorTimes(0, 250))
	result := Recognize(queryFPs, idx, testHopSize, testSampleRate)
	require.True(t, result.Matched)
	assert.Equal(t, shift, result.Best.OffsetFrames)
}

func TestRecognizePicksHighestVotedTrackAmongMultiple(t *testing.T) {
	idx := index.NewMemIndex()
	loud, err := idx.Insert(index.TrackMeta{Name: "loud"}, buildFingerprints(anchorTimes(0, 250)))
	require.NoError(t, err)
	_, err = idx.Insert(index.TrackMeta{Name: "quiet"}, buildFingerprints([]int{1000}))
	require.NoError(t, err)

	result := Recognize(buildFingerprints(anchorTimes(0, 250)), idx, testHopSize, testSampleRate)
	require.True(t, result.Matched)
	assert.Equal(t, loud.ID, result.Best.Track.ID)
}

func TestConfidenceTiers(t *testing.T) {
	assert.Equal(t, NoMatch, confidenceFor(0))
	assert.Equal(t, NoMatch, confidenceFor(199))
	assert.Equal(t, LowConfidence, confidenceFor(200))
	assert.Equal(t, LowConfidence, confidenceFor(999))
	assert.Equal(t, MediumConfidence, confidenceFor(1000))
	assert.Equal(t, MediumConfidence, confidenceFor(2999))
	assert.Equal(t, HighConfidence, confidenceFor(3000))
	assert.Equal(t, HighConfidence, confidenceFor(10000))
}

func TestFormatPosition(t *testing.T) {
	assert.Equal(t, "0:00", FormatPosition(0))
	assert.Equal(t, "2:05", FormatPosition(125))
	assert.Equal(t, "2:05", FormatPosition(-125))
}
