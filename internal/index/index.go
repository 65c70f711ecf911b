// Package index implements spec.md §4.4's fingerprint index: an
// associative store mapping each (f1, f2, dt) hash key to postings of
// (track_id, anchor_time), with a side table of per-track metadata.
//
// Grounded on algorithm/main.go's FingerprintDB/Posting (the in-memory
// default, MemIndex) and indexer/indexer.go + matcher/matcher.go's
// batched-write/transactional-read Badger usage (the durable alternative,
// BadgerIndex, in badger.go).
package index

import (
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	xxhash "github.com/OneOfOne/xxhash"

	"github.com/afsispa/soundtrace/internal/fingerprint"
)

// Posting is spec.md §3's (track_id, t1) pair.
type Posting struct {
	TrackID     uint32
	AnchorFrame uint32
}

// TrackMeta is the side table entry spec.md §3 requires: name,
// fingerprint count, and optional duration for a track_id.
type TrackMeta struct {
	ID               uint32
	Name             string
	FingerprintCount int
	DurationSeconds  float64
}

// CorruptIndexError is spec.md §7's CorruptIndex error kind, raised when a
// restored snapshot fails internal consistency checks.
type CorruptIndexError struct {
	Reason string
}

func (e *CorruptIndexError) Error() string {
	return fmt.Sprintf("corrupt index: %s", e.Reason)
}

// Index is the fingerprint index contract of spec.md §4.4. A single
// instance supports concurrent Probe calls and serializes Insert against
// Probe (spec.md §5's single-writer/many-reader discipline).
type Index interface {
	// Insert appends one posting per fingerprint under a freshly assigned
	// track_id and records track's metadata. The full fingerprint list is
	// built by the caller before this is called, so a cancelled ingest
	// never becomes partially visible (spec.md §5).
	Insert(track TrackMeta, fps []fingerprint.Fingerprint) (TrackMeta, error)

	// Probe returns the postings for one hash key. Order is unspecified
	// but stable for a given index state.
	Probe(key uint32) []Posting

	// Tracks returns every track's metadata. Order is unspecified but
	// stable for a given index state.
	Tracks() []TrackMeta

	// Stats returns the number of tracks and distinct hash keys.
	Stats() (trackCount, hashCount int)

	// RemoveTrack deletes every posting referencing trackID and its
	// metadata entry. Not required by spec.md's core, but kept here so
	// long-lived index backends (§4.4, BadgerIndex) aren't append-only
	// forever.
	RemoveTrack(trackID uint32) error

	// Snapshot and Restore serialize/deserialize the index opaquely
	// (spec.md §6's persisted-state contract).
	Snapshot() ([]byte, error)
	Restore([]byte) error
}

// hashBucketKey maps a packed (f1,f2,dt) key to the 64-bit map key MemIndex
// actually stores fingerprints under. Grounded on indexer/indexer.go's use
// of xxhash.Checksum64 over the packed address bytes.
func hashBucketKey(key uint32) uint64 {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], key)
	return xxhash.Checksum64(buf[:])
}

// MemIndex is the default in-memory Index, a Go map guarded by a
// single-writer/many-reader lock, grounded on algorithm/main.go's
// FingerprintDB.
type MemIndex struct {
	mu     sync.RWMutex
	byHash map[uint64][]Posting
	tracks map[uint32]TrackMeta
	nextID uint32
}

// NewMemIndex returns an empty MemIndex.
func NewMemIndex() *MemIndex {
	return &MemIndex{
		byHash: make(map[uint64][]Posting),
		tracks: make(map[uint32]TrackMeta),
	}
}

func (idx *MemIndex) Insert(track TrackMeta, fps []fingerprint.Fingerprint) (TrackMeta, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	track.ID = idx.nextID
	idx.nextID++
	track.FingerprintCount = len(fps)

	for _, fp := range fps {
		hk := hashBucketKey(fp.HashKey())
		idx.byHash[hk] = append(idx.byHash[hk], Posting{
			TrackID:     track.ID,
			AnchorFrame: uint32(fp.T1),
		})
	}
	idx.tracks[track.ID] = track
	return track, nil
}

func (idx *MemIndex) Probe(key uint32) []Posting {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	postings := idx.byHash[hashBucketKey(key)]
	out := make([]Posting, len(postings))
	copy(out, postings)
	return out
}

func (idx *MemIndex) Tracks() []TrackMeta {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]TrackMeta, 0, len(idx.tracks))
	for _, t := range idx.tracks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (idx *MemIndex) Stats() (trackCount, hashCount int) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.tracks), len(idx.byHash)
}

func (idx *MemIndex) RemoveTrack(trackID uint32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.tracks[trackID]; !ok {
		return fmt.Errorf("index: unknown track %d", trackID)
	}
	delete(idx.tracks, trackID)
	for h, postings := range idx.byHash {
		kept := postings[:0:0]
		for _, p := range postings {
			if p.TrackID != trackID {
				kept = append(kept, p)
			}
		}
		if len(kept) == 0 {
			delete(idx.byHash, h)
		} else {
			idx.byHash[h] = kept
		}
	}
	return nil
}
