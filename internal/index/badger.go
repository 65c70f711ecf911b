package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/afsispa/soundtrace/internal/fingerprint"
)

// BadgerIndex is the durable Index backend, grounded on indexer/indexer.go's
// batched hash-bucket writes and matcher/matcher.go's read-and-parse
// lookups. Postings for a bucket are stored as newline-separated
// "trackID:anchorFrame" text lines under one key, exactly the format
// matcher/matcher.go's db.View/txn.Get/bufio.Scanner loop parses.
type BadgerIndex struct {
	db  *badger.DB
	seq *badger.Sequence
	mu  sync.Mutex
}

const (
	fpKeyPrefix   = "fp:"
	metaKeyPrefix = "meta:t:"
	seqKey        = "meta:trackseq"
)

// OpenBadgerIndex opens (creating if absent) a Badger-backed index at path.
func OpenBadgerIndex(path string) (*BadgerIndex, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("index: open badger at %s: %w", path, err)
	}
	seq, err := db.GetSequence([]byte(seqKey), 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("index: badger sequence: %w", err)
	}
	return &BadgerIndex{db: db, seq: seq}, nil
}

// Close releases the sequence lease and closes the underlying database.
func (b *BadgerIndex) Close() error {
	if err := b.seq.Release(); err != nil {
		b.db.Close()
		return fmt.Errorf("index: release sequence: %w", err)
	}
	return b.db.Close()
}

func encodeFPKey(hk uint64) []byte {
	key := make([]byte, len(fpKeyPrefix)+8)
	copy(key, fpKeyPrefix)
	binary.BigEndian.PutUint64(key[len(fpKeyPrefix):], hk)
	return key
}

func encodeMetaKey(id uint32) []byte {
	key := make([]byte, len(metaKeyPrefix)+4)
	copy(key, metaKeyPrefix)
	binary.BigEndian.PutUint32(key[len(metaKeyPrefix):], id)
	return key
}

func decodeTrackMeta(data []byte) (TrackMeta, error) {
	var t TrackMeta
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&t)
	return t, err
}

func encodeTrackMeta(t TrackMeta) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *BadgerIndex) Insert(track TrackMeta, fps []fingerprint.Fingerprint) (TrackMeta, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, err := b.seq.Next()
	if err != nil {
		return TrackMeta{}, fmt.Errorf("index: next track id: %w", err)
	}
	track.ID = uint32(id)
	track.FingerprintCount = len(fps)

	lines := make(map[uint64][]byte)
	for _, fp := range fps {
		hk := hashBucketKey(fp.HashKey())
		lines[hk] = append(lines[hk], []byte(fmt.Sprintf("%d:%d\n", track.ID, fp.T1))...)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		for hk, add := range lines {
			key := encodeFPKey(hk)
			var existing []byte
			item, err := txn.Get(key)
			switch {
			case err == nil:
				if err := item.Value(func(v []byte) error {
					existing = append(existing, v...)
					return nil
				}); err != nil {
					return err
				}
			case err == badger.ErrKeyNotFound:
			default:
				return err
			}
			existing = append(existing, add...)
			if err := txn.Set(key, existing); err != nil {
				return err
			}
		}
		metaBuf, err := encodeTrackMeta(track)
		if err != nil {
			return err
		}
		return txn.Set(encodeMetaKey(track.ID), metaBuf)
	})
	if err != nil {
		return TrackMeta{}, fmt.Errorf("index: insert track %q: %w", track.Name, err)
	}
	return track, nil
}

func (b *BadgerIndex) Probe(key uint32) []Posting {
	var out []Posting
	fpKey := encodeFPKey(hashBucketKey(key))
	_ = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fpKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			sc := bufio.NewScanner(bytes.NewReader(v))
			for sc.Scan() {
				parts := strings.SplitN(sc.Text(), ":", 2)
				if len(parts) != 2 {
					continue
				}
				tid, err := strconv.ParseUint(parts[0], 10, 32)
				if err != nil {
					continue
				}
				anchor, err := strconv.ParseUint(parts[1], 10, 32)
				if err != nil {
					continue
				}
				out = append(out, Posting{TrackID: uint32(tid), AnchorFrame: uint32(anchor)})
			}
			return sc.Err()
		})
	})
	return out
}

func (b *BadgerIndex) Tracks() []TrackMeta {
	var out []TrackMeta
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				meta, err := decodeTrackMeta(v)
				if err != nil {
					return err
				}
				out = append(out, meta)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out
}

func (b *BadgerIndex) Stats() (trackCount, hashCount int) {
	trackCount = len(b.Tracks())
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(fpKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			hashCount++
		}
		return nil
	})
	return trackCount, hashCount
}

// RemoveTrack scans every fingerprint bucket, drops lines referencing
// trackID, and deletes trackID's metadata. Scan-then-write is split across
// two transactions since Badger disallows mutating an iterator's snapshot
// mid-iteration.
func (b *BadgerIndex) RemoveTrack(trackID uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tidPrefix := fmt.Sprintf("%d:", trackID)
	rewrites := make(map[string][]byte)
	deletes := make(map[string]struct{})

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fpKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := append([]byte(nil), it.Item().Key()...)
			err := it.Item().Value(func(v []byte) error {
				var kept bytes.Buffer
				sc := bufio.NewScanner(bytes.NewReader(v))
				changed := false
				for sc.Scan() {
					line := sc.Text()
					if strings.HasPrefix(line, tidPrefix) {
						changed = true
						continue
					}
					kept.WriteString(line)
					kept.WriteByte('\n')
				}
				if !changed {
					return nil
				}
				if kept.Len() == 0 {
					deletes[string(key)] = struct{}{}
				} else {
					rewrites[string(key)] = kept.Bytes()
				}
				return sc.Err()
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("index: scan for remove: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for k, v := range rewrites {
			if err := txn.Set([]byte(k), v); err != nil {
				return err
			}
		}
		for k := range deletes {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return txn.Delete(encodeMetaKey(trackID))
	})
}

// Snapshot uses Badger's native incremental backup format.
func (b *BadgerIndex) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := b.db.Backup(&buf, 0); err != nil {
		return nil, fmt.Errorf("index: badger backup: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore loads a Snapshot payload produced by Backup, per Badger's Load.
func (b *BadgerIndex) Restore(data []byte) error {
	if err := b.db.Load(bytes.NewReader(data), 256); err != nil {
		return &CorruptIndexError{Reason: err.Error()}
	}
	return nil
}

var _ io.Closer = (*BadgerIndex)(nil)
