package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/afsispa/soundtrace/internal/engine"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every track in the fingerprint index",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
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
	tracks := eng.ListTracks()
	if len(tracks) == 0 {
		color.Yellow("index is empty")
		return nil
	}
	for _, t := range tracks {
		fmt.Printf("%4d  %-40s  %6d fingerprints  %.1fs\n", t.ID, t.Name, t.FingerprintCount, t.DurationSeconds)
	}
	return nil
}
