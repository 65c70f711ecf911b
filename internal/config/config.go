// Package config holds the engine's construction-time configuration: the
// table in spec.md §6, loaded from flags, environment, and YAML via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// FFTBackend selects which FFT implementation the spectral front-end uses.
type FFTBackend string

const (
	FFTBackendGonum FFTBackend = "gonum"
	FFTBackendGoDSP FFTBackend = "godsp"
)

// IndexBackend selects which fingerprint index implementation the engine
// constructs.
type IndexBackend string

const (
	IndexBackendMem    IndexBackend = "mem"
	IndexBackendBadger IndexBackend = "badger"
)

// Config is the immutable configuration value passed to engine.New. Every
// field here changing requires rebuilding the index (spec.md §6).
type Config struct {
	SampleRate int `mapstructure:"sample_rate"`
	NFFT       int `mapstructure:"n_fft"`
	HopRatio   int `mapstructure:"hop_ratio"`

	FreqNeighborhood int     `mapstructure:"freq_neighborhood"`
	TimeNeighborhood int     `mapstructure:"time_neighborhood"`
	AmplitudeFloorDB float64 `mapstructure:"amplitude_threshold_db"`
	NumBands         int     `mapstructure:"num_bands"`

	Fanout       int     `mapstructure:"fanout"`
	DTMin        int     `mapstructure:"dt_min"`
	DTMaxSeconds float64 `mapstructure:"dt_max_seconds"`

	// Ambient-only: construction-time implementation choices, not part of
	// the fingerprinting algorithm's parameters.
	FFTBackend   FFTBackend   `mapstructure:"fft_backend"`
	IndexBackend IndexBackend `mapstructure:"index_backend"`
	IndexPath    string       `mapstructure:"index_path"`
}

// Default returns the configuration matching spec.md §6's default table.
func Default() Config {
	return Config{
		SampleRate:       44100,
		NFFT:             2048,
		HopRatio:         4,
		FreqNeighborhood: 20,
		TimeNeighborhood: 20,
		AmplitudeFloorDB: -35,
		NumBands:         6,
		Fanout:           10,
		DTMin:            2,
		DTMaxSeconds:     2.0,
		FFTBackend:       FFTBackendGonum,
		IndexBackend:     IndexBackendMem,
		IndexPath:        "soundtrace.index",
	}
}

// HopSize returns HOP = N_FFT / HOP_RATIO.
func (c Config) HopSize() int {
	return c.NFFT / c.HopRatio
}

// DTMaxFrames returns DT_MAX_FRAMES = floor(DT_MAX_SECONDS * SR / HOP).
func (c Config) DTMaxFrames() int {
	return int(c.DTMaxSeconds * float64(c.SampleRate) / float64(c.HopSize()))
}

// Validate checks the ranges config.py's validate_config enforced on the
// research notebook's configuration dictionary.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive")
	}
	if c.NFFT <= 0 || c.NFFT&(c.NFFT-1) != 0 {
		return fmt.Errorf("n_fft must be a positive power of two")
	}
	if c.HopRatio <= 0 {
		return fmt.Errorf("hop_ratio must be positive")
	}
	if c.NumBands <= 0 {
		return fmt.Errorf("num_bands must be positive")
	}
	if c.Fanout <= 0 {
		return fmt.Errorf("fanout must be positive")
	}
	if c.DTMin < 0 {
		return fmt.Errorf("dt_min must be non-negative")
	}
	if c.DTMaxSeconds <= 0 {
		return fmt.Errorf("dt_max_seconds must be positive")
	}
	switch c.FFTBackend {
	case FFTBackendGonum, FFTBackendGoDSP:
	default:
		return fmt.Errorf("unknown fft_backend %q", c.FFTBackend)
	}
	switch c.IndexBackend {
	case IndexBackendMem, IndexBackendBadger:
	default:
		return fmt.Errorf("unknown index_backend %q", c.IndexBackend)
	}
	return nil
}

// Load builds a Config from Viper state already populated by the CLI
// (flags, SOUNDTRACE_* env vars, and an optional YAML file), falling back to
// Default() for anything unset.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	v.SetEnvPrefix("SOUNDTRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
