package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze a single text and add it to the history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, closeFn, err := newCLISession(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := sess.Analyze(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			if errors.Is(err, session.ErrEmptyInput) {
				return err
			}
			fmt.Println(errorStyle.Render("Error: " + err.Error()))
			return fmt.Errorf("analyze via %s failed", sess.State().APIBase)
		}
		fmt.Fprint(cmd.OutOrStdout(), renderResult(res))
		return nil
	},
}

// newCLISession opens the database and builds a session on it. The API base
// saved from the UI settings wins over --api-base and API_BASE.
func newCLISession(ctx context.Context) (*session.Session, func(), error) {
	db, err := openDB(viper.GetString("db.path"))
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.New(ctx, session.Config{
		Runtime:   runtimeConfig(),
		DB:        db,
		NewClient: clientFactory(viper.GetViper()),
		Log:       utils.Log,
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	closeFn := func() {
		sess.Close()
		db.Close()
	}
	return sess, closeFn, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
