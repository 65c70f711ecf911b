package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/afsispa/soundtrace/internal/engine"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print index-wide counters",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	idx, closeFn, err := openIndex(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	eng := engine.New(cfg, idx)
	trackCount, hashCount := eng.Stats()
	fmt.Printf("tracks: %d\nhash keys: %d\n", trackCount, hashCount)
	return nil
}
