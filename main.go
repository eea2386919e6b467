// =============================================================================
// Excel to TXT Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   exceltxt convert       - Convert spreadsheets in the input directory
//   exceltxt inspect FILE  - Show the detected column layout of a file
//   exceltxt version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Reading, detection, normalization and writing
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/excel-to-txt/cmd"
)

func main() {
	cmd.Execute()
}
