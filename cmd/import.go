// =============================================================================
// Census Bulk Importer - Import Command
// =============================================================================
//
// COMMAND USAGE:
//   importer import --file censo.xlsx [flags]
//
// FLAGS:
//   --file        : Spreadsheet to import (.xlsx, .xlsm, .csv)
//   --edit        : Review and correct records interactively before submitting
//   --dry-run     : Print the JSON payload instead of submitting it
//   --endpoint    : Override the configured bulk-import URL
//   --keep        : Leave the input file in place after a successful import
//   --accessible  : Use plain line prompts instead of the full-screen forms
//
// PIPELINE:
//   1. Read and validate the spreadsheet
//   2. Group the records and print the preview
//   3. Optionally edit records
//   4. Submit; on failure offer a retry (with --edit) or save a recovery file
//   5. Archive the input file
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/census-bulk-importer/internal/editor"
	"github.com/ginjaninja78/census-bulk-importer/internal/pipeline"
	"github.com/ginjaninja78/census-bulk-importer/internal/preview"
	"github.com/ginjaninja78/census-bulk-importer/internal/transport"
	"github.com/ginjaninja78/census-bulk-importer/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	importFile       string
	importEdit       bool
	dryRun           bool
	endpointOverride string
	keepInput        bool
	accessible       bool
)

// prompter is swapped out by tests.
var prompter editor.Prompter

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Submit the records of a spreadsheet to the census",
	Long: `The import command reads a spreadsheet, prints the grouped preview and posts
every record to the bulk-import endpoint as {"datos": [...]}.

With --edit you can pick records and correct their fields first. If the
endpoint rejects the submission your edits are kept: you are asked whether to
retry, and if you decline they are written to <archive_dir>/pending/.

On success the input file is moved to archive_dir.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Spreadsheet to import (.xlsx or .csv)")
	importCmd.Flags().BoolVar(&importEdit, "edit", false, "Edit records interactively before submitting")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the payload without submitting it")
	importCmd.Flags().StringVar(&endpointOverride, "endpoint", "", "Bulk-import URL (overrides the config file)")
	importCmd.Flags().BoolVar(&keepInput, "keep", false, "Do not archive the input file after a successful import")
	importCmd.Flags().BoolVar(&accessible, "accessible", false, "Use plain line prompts")
	_ = importCmd.MarkFlagRequired("file")
}

// =============================================================================
// MAIN IMPORT FUNCTION
// =============================================================================

func runImport(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	p, err := loadFile(cmd, importFile)
	if err != nil || p == nil {
		return err
	}
	if err := preview.Write(out, p.Hierarchy(), preview.Options{}); err != nil {
		return err
	}
	fmt.Fprintln(out, preview.Summary(p.Hierarchy()))

	pr := prompter
	if pr == nil {
		pr = editor.Forms{Accessible: accessible}
	}
	files := utils.NewFileManager(appConfig.ArchiveDir)
	files.UseTimestampSubdirs = appConfig.ArchiveSubdirs

	if importEdit {
		n, err := editor.Run(p, pr, logger)
		if err != nil {
			if n > 0 && errors.Is(err, editor.ErrAborted) {
				saveRecovery(files, p)
			}
			return err
		}
		logger.Info("Editing finished", "records_changed", n)
	}

	if dryRun {
		data, err := json.MarshalIndent(transport.Payload{Datos: p.Export()}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	endpoint := appConfig.Endpoint
	if endpointOverride != "" {
		endpoint = endpointOverride
	}
	client := transport.NewClient(endpoint, appConfig.RequestTimeout, logger)

	// Recovery files and the archived input both live here; fail before posting.
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	for {
		n, err := p.Submit(cmd.Context(), client)
		if err == nil {
			fmt.Fprintf(out, "Importación completada: %d registros enviados.\n", n)
			break
		}
		if !errors.Is(err, pipeline.ErrSubmissionFailed) {
			return err
		}

		retry := false
		if importEdit {
			var askErr error
			retry, askErr = pr.ConfirmRetry(err)
			if askErr != nil && !errors.Is(askErr, editor.ErrAborted) {
				return askErr
			}
		}
		if retry {
			continue
		}

		saveRecovery(files, p)
		return err
	}

	if keepInput {
		return nil
	}
	archived, err := files.ArchiveInputFile(importFile)
	if err != nil {
		// The census already has the records; a stuck file is only a warning.
		logger.Warn("Could not archive input file", "file", importFile, "err", err)
		return nil
	}
	logger.Info("Input file archived", "file", archived)
	return nil
}

// saveRecovery writes the loaded records to a recovery file. Failures are
// logged; the caller is already returning an error of its own.
func saveRecovery(files *utils.FileManager, p *pipeline.Pipeline) {
	path, err := files.WriteRecoveryFile(p.Hierarchy().SessionID, transport.Payload{Datos: p.Export()})
	if err != nil {
		logger.Error("Could not save edited records", "err", err)
		return
	}
	logger.Warn("Edited records saved for a later attempt", "file", path)
}
