package index

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// memSnapshot is MemIndex's on-disk shape, grounded on algorithm/main.go's
// saveDB/loadDB pair which gob-encodes the whole FingerprintDB in one shot.
type memSnapshot struct {
	ByHash map[uint64][]Posting
	Tracks map[uint32]TrackMeta
	NextID uint32
}

// Snapshot gob-encodes the whole index state, per algorithm/main.go's
// saveDB.
func (idx *MemIndex) Snapshot() ([]byte, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap := memSnapshot{
		ByHash: idx.byHash,
		Tracks: idx.tracks,
		NextID: idx.nextID,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return nil, fmt.Errorf("index: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore replaces the index state from a Snapshot payload, per
// algorithm/main.go's loadDB. A malformed payload yields CorruptIndexError
// rather than a partially-restored index.
func (idx *MemIndex) Restore(data []byte) error {
	var snap memSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snap); err != nil {
		return &CorruptIndexError{Reason: err.Error()}
	}
	if snap.ByHash == nil {
		snap.ByHash = make(map[uint64][]Posting)
	}
	if snap.Tracks == nil {
		snap.Tracks = make(map[uint32]TrackMeta)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byHash = snap.ByHash
	idx.tracks = snap.Tracks
	idx.nextID = snap.NextID
	return nil
}
