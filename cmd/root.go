// =============================================================================
// Census Bulk Importer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (importer)
//   ├── previewCmd (importer preview)
//   ├── importCmd  (importer import)
//   ├── serveCmd   (importer serve)
//   └── versionCmd (importer version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads config.yaml (or the file named by --config)
//   2. Applies IMPORTER_* environment overrides
//   3. Sets up the charmbracelet/log logger
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/census-bulk-importer/internal/config"
	"github.com/ginjaninja78/census-bulk-importer/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig and logger are set by the root command before a subcommand runs.
var (
	appConfig *config.MainConfig
	logger    *log.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Census Bulk Importer - Load, review and submit census spreadsheets",
	Long: `Census Bulk Importer reads a census spreadsheet, groups its rows by
community, tower and house/apartment, lets you review and correct individual
records, and submits the result to the census bulk-import endpoint.

Key Features:
  - XLSX and CSV input
  - Hierarchical preview (Comunidad / Torre / Casa o Apto)
  - Interactive record editing
  - A receiver that appends submissions to the census workbook

Example Usage:
  importer preview --file censo.xlsx             # Show the grouped records
  importer import --file censo.xlsx --edit       # Review, edit and submit
  importer import --file censo.xlsx --dry-run    # Print the payload only
  importer serve                                  # Run the census receiver`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadMainConfig(cfgFile, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		l, err := logging.Setup(cfg.LogLevel, verbose, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		appConfig, logger = cfg, l
		logger.Debug("Configuration loaded", "file", cfgFile, "endpoint", cfg.Endpoint)
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
// Ctrl-C cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
