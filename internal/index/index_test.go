package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afsispa/soundtrace/internal/fingerprint"
)

func sampleFingerprints() []fingerprint.Fingerprint {
	return []fingerprint.Fingerprint{
		{F1: 10, F2: 20, DT: 5, T1: 0},
		{F1: 10, F2: 20, DT: 5, T1: 100},
		{F1: 30, F2: 40, DT: 7, T1: 200},
	}
}

func TestMemIndexInsertAssignsSequentialIDs(t *testing.T) {
	idx := NewMemIndex()

	t1, err := idx.Insert(TrackMeta{Name: "a"}, sampleFingerprints())
	require.NoError(t, err)
	t2, err := idx.Insert(TrackMeta{Name: "b"}, sampleFingerprints())
	require.NoError(t, err)

	assert.Equal(t, uint32(0), t1.ID)
	assert.Equal(t, uint32(1), t2.ID)
	assert.Equal(t, 3, t1.FingerprintCount)
}

func TestMemIndexProbeReturnsAllPostingsForKey(t *testing.T) {
	idx := NewMemIndex()
	track, err := idx.Insert(TrackMeta{Name: "a"}, sampleFingerprints())
	require.NoError(t, err)

	key := fingerprint.Fingerprint{F1: 10, F2: 20, DT: 5}.HashKey()
	postings := idx.Probe(key)
	require.Len(t, postings, 2)
	for _, p := range postings {
		assert.Equal(t, track.ID, p.TrackID)
	}
}

func TestMemIndexProbeMissReturnsEmpty(t *testing.T) {
	idx := NewMemIndex()
	_, err := idx.Insert(TrackMeta{Name: "a"}, sampleFingerprints())
	require.NoError(t, err)

	postings := idx.Probe(fingerprint.Fingerprint{F1: 999, F2: 999, DT: 1}.HashKey())
	assert.Empty(t, postings)
}

func TestMemIndexSnapshotRestoreRoundTrip(t *testing.T) {
	idx := NewMemIndex()
	track, err := idx.Insert(TrackMeta{Name: "roundtrip"}, sampleFingerprints())
	require.NoError(t, err)

	data, err := idx.Snapshot()
	require.NoError(t, err)

	restored := NewMemIndex()
	require.NoError(t, restored.Restore(data))

	tracks := restored.Tracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, track.Name, tracks[0].Name)

	key := fingerprint.Fingerprint{F1: 10, F2: 20, DT: 5}.HashKey()
	assert.Len(t, restored.Probe(key), 2)
}

func TestMemIndexRestoreRejectsGarbage(t *testing.T) {
	idx := NewMemIndex()
	err := idx.Restore([]byte("not a gob stream"))
	require.Error(t, err)
	var corrupt *CorruptIndexError
	assert.ErrorAs(t, err, &corrupt)
}

func TestMemIndexRemoveTrackDropsItsPostingsOnly(t *testing.T) {
	idx := NewMemIndex()
	a, err := idx.Insert(TrackMeta{Name: "a"}, sampleFingerprints())
	require.NoError(t, err)
	b, err := idx.Insert(TrackMeta{Name: "b"}, sampleFingerprints())
	require.NoError(t, err)

	require.NoError(t, idx.RemoveTrack(a.ID))

	key := fingerprint.Fingerprint{F1: 10, F2: 20, DT: 5}.HashKey()
	postings := idx.Probe(key)
	require.Len(t, postings, 2) // b's two (10,20,5) fingerprints, at T1=0 and T1=100
	assert.Equal(t, b.ID, postings[0].TrackID)
	assert.Equal(t, b.ID, postings[1].TrackID)

	tracks := idx.Tracks()
	require.Len(t, tracks, 1)
	assert.Equal(t, "b", tracks[0].Name)
}

func TestMemIndexStatsCountsTracksAndHashes(t *testing.T) {
	idx := NewMemIndex()
	_, err := idx.Insert(TrackMeta{Name: "a"}, sampleFingerprints())
	require.NoError(t, err)

	trackCount, hashCount := idx.Stats()
	assert.Equal(t, 1, trackCount)
	assert.Equal(t, 2, hashCount) // two distinct (f1,f2,dt) keys in sampleFingerprints
}
