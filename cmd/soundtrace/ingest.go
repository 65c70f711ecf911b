package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/afsispa/soundtrace/internal/audioio"
	"github.com/afsispa/soundtrace/internal/engine"
)

var ingestName string
var ingestWorkers int

// ingestCmd adds one or more WAV files to the index, grounded on
// algorithm/main.go's -mode add path and its worker-pool buildIndex,
// restyled as a Cobra subcommand.
var ingestCmd = &cobra.Command{
	Use:   "ingest <file.wav> [more.wav...]",
	Short: "Add one or more tracks to the fingerprint index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "",
		"track name override (only valid with a single file; otherwise derived from tags or filename)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0,
		"concurrent ingest workers (0 = NumCPU-1, at least 2)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestName != "" && len(args) > 1 {
		return fmt.Errorf("--name can only be used with a single file")
	}

	idx, closeFn, err := openIndex(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: persisting index: %v\n", err)
		}
	}()

	eng := engine.New(cfg, idx)

	workers := ingestWorkers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
	}
	if workers > len(args) {
		workers = len(args)
	}

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(args)),
		mpb.PrependDecorators(
			decor.Name("Ingesting: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	type outcome struct {
		path string
		err  error
		fps  int
	}
	jobs := make(chan string, len(args))
	results := make(chan outcome, len(args))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				name := ingestName
				if name == "" {
					name = deriveTrackName(path)
				}
				track, err := ingestOne(eng, path, name)
				results <- outcome{path: path, err: err, fps: track.FingerprintCount}
			}
		}()
	}
	for _, a := range args {
		jobs <- a
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	var failed int
	for r := range results {
		bar.Increment()
		if r.err != nil {
			color.Red("✗ %s: %v", r.path, r.err)
			failed++
			continue
		}
		color.Green("✓ %s (%d fingerprints)", r.path, r.fps)
	}
	p.Wait()

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
	}
	return nil
}

func ingestOne(eng *engine.Engine, path, name string) (trackResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return trackResult{}, err
	}
	defer f.Close()

	clip, err := audioio.DecodeWAV(f)
	if err != nil {
		return trackResult{}, err
	}
	track, err := eng.Ingest(name, clip.Samples, clip.SampleRate, clip.Duration)
	if err != nil {
		return trackResult{}, err
	}
	return trackResult{FingerprintCount: track.FingerprintCount}, nil
}

type trackResult struct {
	FingerprintCount int
}

// deriveTrackName prefers the file's embedded Title/Artist tag, falling
// back to the base filename. Grounded on matcher/matcher.go's
// readEmbeddedMetadata.
func deriveTrackName(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return baseName(path)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil || m.Title() == "" {
		return baseName(path)
	}
	if m.Artist() == "" {
		return m.Title()
	}
	return fmt.Sprintf("%s - %s", m.Artist(), m.Title())
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
