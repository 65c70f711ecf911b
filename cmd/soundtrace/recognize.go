package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/afsispa/soundtrace/internal/audioio"
	"github.com/afsispa/soundtrace/internal/engine"
	"github.com/afsispa/soundtrace/internal/matcher"
)

var recognizeTopK int

// recognizeCmd identifies a query clip against the index, grounded on
// algorithm/main.go's -mode query path and printTop.
var recognizeCmd = &cobra.Command{
	Use:   "recognize <clip.wav>",
	Short: "Identify a short audio clip against the fingerprint index",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecognize,
}

func init() {
	recognizeCmd.Flags().IntVar(&recognizeTopK, "top", 5, "number of candidates to print")
}

func runRecognize(cmd *cobra.Command, args []string) error {
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

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	clip, err := audioio.DecodeWAV(f)
	if err != nil {
		return err
	}

	result, err := eng.Recognize(clip.Samples, clip.SampleRate)
	if err != nil {
		return err
	}
	printResult(result)
	return nil
}

func printResult(result matcher.Result) {
	if !result.Matched {
		color.Yellow("❌ No matching song detected")
		return
	}
	best := result.Best
	color.Green("✅ %s", best.Track.Name)
	fmt.Printf("   position: %s   confidence: %s   score: %d\n",
		matcher.FormatPosition(best.OffsetSeconds), best.Confidence, best.Votes)

	top := result.Candidates
	if recognizeTopK > 0 && recognizeTopK < len(top) {
		top = top[:recognizeTopK]
	}
	if len(top) > 1 {
		fmt.Println("   candidates:")
		for i, c := range top {
			fmt.Printf("   %2d) %-30s votes=%-4d offset=%s confidence=%s\n",
				i+1, c.Track.Name, c.Votes, matcher.FormatPosition(c.OffsetSeconds), c.Confidence)
		}
	}
}
