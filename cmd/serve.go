package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sentiview/sentiview/internal/server"
	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/runtimeconfig"
	"github.com/sentiview/sentiview/pkg/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Inject the runtime config and serve the site and the demo UI",
	PreRun: func(cmd *cobra.Command, args []string) {
		bindSiteFlags(viper.GetViper(), cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		root := viper.GetString("serve.root")
		listenAddr := viper.GetString("serve.listen")
		rc := runtimeConfig()

		prepareSite(root, viper.GetString("serve.template"), rc)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sess, closeFn, err := newServeSession(ctx, rc, viper.GetString("db.path"), clientFactory(viper.GetViper()))
		if err != nil {
			return err
		}
		defer closeFn()

		utils.Log.Infof("Using API %s", sess.State().APIBase)
		return server.New(sess, root).Start(ctx, listenAddr)
	},
}

// prepareSite seeds root with the default site when empty and writes the
// runtime config into it. Failures are logged; the site is served anyway.
func prepareSite(root, template string, rc runtimeconfig.RuntimeConfig) {
	seeded, err := server.SeedSite(root)
	if err != nil {
		utils.Log.Warnf("Could not seed %s: %v", root, err)
	} else if seeded {
		utils.Log.Infof("Seeded %s with the default site", root)
	}

	if _, err := injectInto(root, template, rc); err != nil {
		utils.Log.Warnf("Runtime config injection incomplete: %v", err)
	}
}

// newServeSession opens the database at dbPath and builds the shared
// session. When the database cannot be opened the session runs in memory
// only, so the UI still comes up.
func newServeSession(ctx context.Context, rc runtimeconfig.RuntimeConfig, dbPath string, factory session.ClientFactory) (*session.Session, func(), error) {
	cfg := session.Config{
		Runtime:   rc,
		NewClient: factory,
		Log:       utils.Log,
	}

	db, err := openDB(dbPath)
	if err != nil {
		utils.Log.Warnf("Could not open database, history will not be kept: %v", err)
	} else {
		cfg.DB = db
	}

	sess, err := session.New(ctx, cfg)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, err
	}
	closeFn := func() {
		sess.Close()
		if db != nil {
			db.Close()
		}
	}
	return sess, closeFn, nil
}

// bindSiteFlags points the serve.* keys at the running command's flags.
// serve and inject share the keys, so binding happens per run.
func bindSiteFlags(v *viper.Viper, cmd *cobra.Command) {
	v.BindPFlag("serve.root", cmd.Flags().Lookup("root"))
	v.BindPFlag("serve.template", cmd.Flags().Lookup("template"))
	if f := cmd.Flags().Lookup("listen"); f != nil {
		v.BindPFlag("serve.listen", f)
	}
}

func addSiteFlags(cmd *cobra.Command) {
	cmd.Flags().String("root", "dist", "Static site directory to patch and serve")
	cmd.Flags().String("template", "", "config.js template (default <root>/config.template.js)")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addSiteFlags(serveCmd)
	serveCmd.Flags().String("listen", ":3000", "HTTP listen address")
}
