// =============================================================================
// Excel to TXT Converter - Inspect Command
// =============================================================================
//
// COMMAND USAGE:
//   exceltxt inspect FILE [--rows N]
//
// Prints the per-column date and money scores, the detected layout, and a
// preview of the canonical rows, without writing anything.
//
// =============================================================================

package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/ginjaninja78/excel-to-txt/internal/converter"
	"github.com/ginjaninja78/excel-to-txt/internal/fixedwidth"
	"github.com/ginjaninja78/excel-to-txt/internal/logger"
	"github.com/ginjaninja78/excel-to-txt/internal/prompt"
	"github.com/spf13/cobra"
)

var (
	inspectRows     int
	inspectPassword string
)

// inspectCmd represents the 'inspect' command.
var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the detected column layout of a spreadsheet",
	Long: `The inspect command reads a spreadsheet and reports how each column scored
as a date column and as a money column, which columns were chosen, whether a
totals row would be removed, and the first canonical rows.`,

	Args: cobra.ExactArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().IntVarP(&inspectRows, "rows", "n", 5, "Number of canonical rows to preview")
	inspectCmd.Flags().StringVar(&inspectPassword, "password", "", "Password for protected workbooks")
}

func runInspect(cmd *cobra.Command, name string) error {
	out := cmd.OutOrStdout()
	log := logger.FromContext(cmd.Context())

	path, err := resolveInput(name)
	if err != nil {
		return err
	}

	options := converter.Options{Password: inspectPassword}
	if options.Password == "" {
		options.Password = mainConfig.Password
	}
	if prompt.Interactive() {
		options.Prompt = prompt.NewTerminal().Password
	}

	grid, err := converter.ReadTable(path, mainConfig, options)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprintf(out, "File:    %s\n", path)
	fmt.Fprintf(out, "Size:    %d rows x %d columns\n\n", grid.NumRows(), grid.NumColumns())

	result, err := converter.Convert(grid, fixedwidth.NewWriter(mainConfig.Layout, log))
	det := result.Detection

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COL\tLABEL\tDATE\tMONEY\tROLE")
	for i := 0; i < grid.NumColumns(); i++ {
		role := ""
		if err == nil {
			switch i {
			case det.DateColumn:
				role = "date"
			case det.MoneyColumn1:
				role = "amount 1"
			case det.MoneyColumn2:
				role = "amount 2"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, grid.Label(i), score(det.DateScores, i), score(det.MoneyScores, i), role)
	}
	if flushErr := tw.Flush(); flushErr != nil {
		return flushErr
	}

	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nLayout:  %s\n", det)
	fmt.Fprintf(out, "Footer:  removed=%t\n", result.FooterRemoved)
	fmt.Fprintf(out, "Lines:   %d\n", len(result.Lines))

	if inspectRows > 0 && len(result.Rows) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "SEQ\tDATE\tAMOUNT1\tAMOUNT2\t")
		for i, row := range result.Rows {
			if i >= inspectRows {
				break
			}
			date := row.Date
			if date == "" {
				date = "(blank)"
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t\n", mainConfig.Layout.InitialSequence+i, date, row.Amount1, row.Amount2)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return nil
}

// score formats a column score, or "-" when detection produced none.
func score(scores []float64, i int) string {
	if i >= len(scores) {
		return "-"
	}
	return fmt.Sprintf("%.2f", scores[i])
}
