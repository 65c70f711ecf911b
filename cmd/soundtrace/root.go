package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/afsispa/soundtrace/internal/config"
	"github.com/afsispa/soundtrace/internal/obs"
)

var (
	cfgFile      string
	indexPath    string
	indexBackend string
	verbose      bool
)

// rootCmd is the base command, grounded on
// RyanBlaney-latency-benchmark/cmd/root.go's rootCmd/PersistentPreRunE
// structure.
var rootCmd = &cobra.Command{
	Use:   "soundtrace",
	Short: "Shazam-style audio fingerprinting engine",
	Long: `soundtrace builds and queries an audio fingerprint index: ingest
tracks to populate it, then recognize short clips against what's been
ingested via time-shift invariant offset-histogram voting.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, viper.GetViper())
	},
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: soundtrace.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&indexPath, "index-path", "soundtrace.index",
		"fingerprint index file/directory path")
	rootCmd.PersistentFlags().StringVar(&indexBackend, "index-backend", "mem",
		"index backend: mem or badger")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	viper.BindPFlag("index_path", rootCmd.PersistentFlags().Lookup("index-path"))
	viper.BindPFlag("index_backend", rootCmd.PersistentFlags().Lookup("index-backend"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(ingestCmd, recognizeCmd, listCmd, statsCmd, serveCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("soundtrace")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("SOUNDTRACE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	if viper.GetBool("verbose") {
		obs.SetLevel(slog.LevelDebug)
	}
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				lastErr = err
			}
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}
	})
	return lastErr
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}
	if indexPath != "" {
		cfg.IndexPath = indexPath
	}
	if indexBackend != "" {
		cfg.IndexBackend = config.IndexBackend(indexBackend)
	}
	return cfg, cfg.Validate()
}
