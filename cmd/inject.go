package cmd

import (
	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/runtimeconfig"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Write config.js from API_BASE and make index.html load it",
	Long: `Write <root>/config.js from the template (synthesizing the default template
when none exists) and insert a script tag for it into <root>/index.html.
Every step is attempted; failures are reported together.

--root and --template share the serve.root and serve.template config keys
with the serve command.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindSiteFlags(viper.GetViper(), cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		root := viper.GetString("serve.root")

		res, err := injectInto(root, viper.GetString("serve.template"), runtimeConfig())
		if err != nil {
			return err
		}
		if res.TemplateSynthesized {
			utils.Log.Infof("Created default template in %s", root)
		}
		if res.ScriptInserted {
			utils.Log.Info("Added config.js script tag to index.html")
		}
		return nil
	},
}

func injectInto(root, template string, rc runtimeconfig.RuntimeConfig) (runtimeconfig.InjectResult, error) {
	res, err := runtimeconfig.Inject(runtimeconfig.InjectOptions{
		Root:     root,
		Template: template,
		Config:   rc,
	})
	if err == nil {
		utils.Log.Infof("Wrote %s (API_BASE=%s)", res.ConfigPath, rc.APIBase)
	}
	return res, err
}

func init() {
	rootCmd.AddCommand(injectCmd)
	addSiteFlags(injectCmd)
}
