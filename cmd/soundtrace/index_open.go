package main

import (
	"fmt"
	"os"

	"github.com/afsispa/soundtrace/internal/config"
	"github.com/afsispa/soundtrace/internal/index"
)

// openIndex opens cfg's configured index backend and returns a close
// function that persists any changes (a no-op for Badger, whose writes
// are already durable) and releases resources. Grounded on
// algorithm/main.go's loadDB/saveDB pairing for the gob-backed default.
func openIndex(cfg config.Config) (index.Index, func() error, error) {
	switch cfg.IndexBackend {
	case config.IndexBackendBadger:
		idx, err := index.OpenBadgerIndex(cfg.IndexPath)
		if err != nil {
			return nil, nil, err
		}
		return idx, idx.Close, nil

	case config.IndexBackendMem:
		idx := index.NewMemIndex()
		if data, err := os.ReadFile(cfg.IndexPath); err == nil {
			if err := idx.Restore(data); err != nil {
				return nil, nil, fmt.Errorf("loading index %s: %w", cfg.IndexPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("reading index %s: %w", cfg.IndexPath, err)
		}
		closeFn := func() error {
			data, err := idx.Snapshot()
			if err != nil {
				return err
			}
			return os.WriteFile(cfg.IndexPath, data, 0o644)
		}
		return idx, closeFn, nil

	default:
		return nil, nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}
