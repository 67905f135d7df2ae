// =============================================================================
// Census Bulk Importer - Main Entry Point
// =============================================================================
//
// USAGE:
//   importer preview  - Show the grouped records of a spreadsheet
//   importer import   - Review, edit and submit a spreadsheet
//   importer serve    - Append submissions to the census workbook
//   importer version  - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (decoding, grouping pipeline, transport,
//                      census receiver, preview, editor)
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/census-bulk-importer/cmd"
)

func main() {
	cmd.Execute()
}
