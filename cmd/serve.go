package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/census-bulk-importer/internal/census"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the receiver that appends bulk imports to the census workbook",
	Long: `The serve command listens for POST /api/bulk-import and appends every
received record to the configured census workbook (server.census_file,
sheet server.census_sheet). Import columns are matched to census columns
ignoring case, spaces and punctuation; unmatched columns are reported back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := appConfig.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		book := census.NewBook(appConfig.Server.CensusFile, appConfig.Server.CensusSheet, logger)
		srv := &http.Server{
			Addr:              addr,
			Handler:           census.NewMux(census.NewHandler(book, logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		return serve(cmd.Context(), srv)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

// serve runs srv until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Census receiver listening", "addr", srv.Addr, "census", appConfig.Server.CensusFile)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
