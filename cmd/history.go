package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/sentiview/sentiview/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the analysis history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List history entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := openDB(viper.GetString("db.path"))
		if err != nil {
			return err
		}
		defer db.Close()

		history, err := db.LoadHistory(cmd.Context())
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("History is empty.")
			return nil
		}
		if limit > 0 && limit < len(history) {
			history = history[:limit]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "WHEN\tLABEL\tMODEL\tTEXT\t")
		for _, e := range history {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", humanize.Time(e.Time()), e.Result.Label, e.Result.Model, utils.Truncate(e.Text, 60))
		}
		return w.Flush()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, closeFn, err := newCLISession(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		n := len(sess.State().History)
		sess.ClearHistory()
		utils.Log.Infof("Cleared %d history entries", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyListCmd.Flags().IntP("limit", "n", 0, "Show at most n entries (0 = all)")
}
