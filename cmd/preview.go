package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/census-bulk-importer/internal/ingest"
	"github.com/ginjaninja78/census-bulk-importer/internal/pipeline"
	"github.com/ginjaninja78/census-bulk-importer/internal/preview"
	"github.com/ginjaninja78/census-bulk-importer/internal/validation"
)

var (
	previewFile    string
	previewPlain   bool
	previewShowIDs bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the records of a spreadsheet grouped by community, tower and unit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadFile(cmd, previewFile)
		if err != nil || p == nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := preview.Write(out, p.Hierarchy(), preview.Options{Plain: previewPlain, ShowIDs: previewShowIDs}); err != nil {
			return err
		}
		fmt.Fprintln(out, preview.Summary(p.Hierarchy()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVarP(&previewFile, "file", "f", "", "Spreadsheet to read (.xlsx or .csv)")
	previewCmd.Flags().BoolVar(&previewPlain, "plain", false, "Disable colours")
	previewCmd.Flags().BoolVar(&previewShowIDs, "ids", false, "Show temporary record ids")
	_ = previewCmd.MarkFlagRequired("file")
}

// loadFile decodes path, reports validation findings and loads a pipeline.
// It returns a nil pipeline (and prints the empty-state message) when the
// file holds no records.
func loadFile(cmd *cobra.Command, path string) (*pipeline.Pipeline, error) {
	res, err := ingest.ReadFile(path, appConfig)
	if err != nil {
		return nil, err
	}
	logger.Info("Read spreadsheet", "file", path, "sheet", res.Sheet, "rows", len(res.Rows))

	report := validation.Validate(res.Headers, res.Rows)
	if !report.Clean() {
		for _, finding := range report.Errors {
			logger.Warn(finding.Error())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Advertencias: %d (el archivo se puede importar igualmente)\n", report.WarningCount())
	}

	p := pipeline.New(pipeline.WithLogger(logger))
	if _, err := p.Load(res.Rows); err != nil {
		if errors.Is(err, pipeline.ErrEmptyInput) {
			fmt.Fprintln(cmd.OutOrStdout(), preview.EmptyMessage)
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}
