package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/session"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Analyze one text per line from a file or stdin",
	Long: `Analyze every non-empty line of the input in a single batch request.
Results are printed and added to the history; --csv also exports them
(use "-" to write only the CSV to stdout).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		raw, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		sess, closeFn, err := newCLISession(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		csvPath, _ := cmd.Flags().GetString("csv")
		return runBatch(cmd.Context(), sess, string(raw), csvPath, cmd.OutOrStdout())
	},
}

// runBatch analyzes raw and prints the rows to out. With csvPath "-" only
// the CSV goes to out; any other non-empty csvPath also writes that file.
func runBatch(ctx context.Context, sess *session.Session, raw, csvPath string, out io.Writer) error {
	view, err := sess.AnalyzeBatch(ctx, raw)
	if err != nil {
		return err
	}

	if csvPath == "-" {
		return sess.ExportCSV(out)
	}

	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d results · %s", len(view.Rows), view.Model)))
	for _, row := range view.Rows {
		fmt.Fprintf(out, "%s %s %s\n", mutedStyle.Render(row.ID+"."), badge(row.Label), utils.Truncate(row.Text, 80))
		fmt.Fprint(out, bars(row.Scores))
	}

	if csvPath == "" {
		return nil
	}
	f, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := sess.ExportCSV(f); err != nil {
		return err
	}
	utils.Log.Infof("Wrote %s", csvPath)
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().String("csv", "", "Also write the results as CSV to this path (\"-\" for CSV on stdout only)")
}
