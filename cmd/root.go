package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sentiview/sentiview/internal/utils"
	"github.com/sentiview/sentiview/pkg/runtimeconfig"
	"github.com/sentiview/sentiview/pkg/sentiment"
	"github.com/sentiview/sentiview/pkg/session"
	"github.com/sentiview/sentiview/pkg/storage"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	LOGO = `                 _   _       _
  ___  ___ _ __ | |_(_)_   _(_) _____      __
 / __|/ _ \ '_ \| __| \ \ / / |/ _ \ \ /\ / /
 \__ \  __/ | | | |_| |\ V /| |  __/\ V  V /
 |___/\___|_| |_|\__|_| \_/ |_|\___| \_/\_/

`
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sentiview",
	Short: "Sentiment analysis demo client.",
	Long: LOGO + `sentiview talks to a sentiment analysis HTTP API. It serves a small web UI
for single and batch analysis, keeps a local history, and patches a static
site with the API base it should use at runtime.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sentiview.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	addGlobalFlags(rootCmd)
	bindConfig(viper.GetViper(), rootCmd)
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("api-base", "", "Sentiment API base URL (env API_BASE, default "+runtimeconfig.DefaultAPIBase+")")
	cmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default ~/.config/sentiview/sentiview.sqlite)")
}

// bindConfig wires flags, environment and defaults into v. Precedence is
// flag, then API_BASE / SENTIVIEW_*, then the config file, then defaults.
func bindConfig(v *viper.Viper, cmd *cobra.Command) {
	v.BindPFlag("api_base", cmd.PersistentFlags().Lookup("api-base"))
	v.BindPFlag("db.path", cmd.PersistentFlags().Lookup("dbpath"))
	v.BindEnv("api_base", runtimeconfig.EnvAPIBase)
	v.SetEnvPrefix("sentiview")
	v.AutomaticEnv()
	setDefaults(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base", "")
	v.SetDefault("api.retries", 0)
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("db.path", "")
	v.SetDefault("serve.listen", ":3000")
	v.SetDefault("serve.root", "dist")
	v.SetDefault("serve.template", "")
}

// writeDefaultConfig creates path holding only the built-in defaults, so
// values that came from flags or the environment on this run are not
// frozen into the file.
func writeDefaultConfig(path string) error {
	v := viper.New()
	setDefaults(v)
	return v.SafeWriteConfigAs(path)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env is the normal case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Printf("Error loading .env: %s\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".sentiview")
		viper.SetConfigType("yaml")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			if err := writeDefaultConfig(filepath.Join(home, ".sentiview.yaml")); err != nil {
				fmt.Printf("Error creating config file: %s\n", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}

// runtimeConfig resolves the API base from flag, API_BASE or config file.
func runtimeConfig() runtimeconfig.RuntimeConfig {
	return runtimeConfigFrom(viper.GetViper())
}

func runtimeConfigFrom(v *viper.Viper) runtimeconfig.RuntimeConfig {
	return runtimeconfig.New(v.GetString("api_base"))
}

// clientFactory builds API clients with the configured retry budget and
// timeout. Both are off by default.
func clientFactory(v *viper.Viper) session.ClientFactory {
	retries := v.GetInt("api.retries")
	timeout := v.GetDuration("api.timeout")
	return func(base string) session.Analyzer {
		return sentiment.New(base, sentiment.WithRetries(retries), sentiment.WithTimeout(timeout))
	}
}

func openDB(path string) (*storage.DB, error) {
	path, err := utils.GetAbsDBPath(path)
	if err != nil {
		return nil, err
	}
	utils.Log.Debugf("Using database %s", path)
	return storage.Open(path)
}
