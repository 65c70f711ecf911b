package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/afsispa/soundtrace/internal/engine"
	"github.com/afsispa/soundtrace/internal/httpapi"
	"github.com/afsispa/soundtrace/internal/obs"
)

var serveAddr string

// serveCmd exposes the engine over HTTP, grounded on
// kishore-FDI-WaveID/server/server.go's setupHTTPServer.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the fingerprint engine over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
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
	srv := httpapi.New(eng)

	obs.Logger().Info("HTTP server starting", slog.String("addr", serveAddr))
	fmt.Printf("listening on %s\n", serveAddr)
	return http.ListenAndServe(serveAddr, srv.Handler())
}
