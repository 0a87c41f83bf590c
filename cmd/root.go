// Package cmd provides the templmd command-line interface.
//
// Configuration is resolved from, in order of precedence:
//
//  1. Command-line flags (--port, --no-sanitize, ...)
//  2. TEMPLMD_<SECTION>_<OPTION> environment variables
//  3. The file named by --config or TEMPLMD_CONFIG_FILE
//  4. .templmd.yml in the current directory
//  5. Built-in defaults
package cmd

import (
	"fmt"
	"os"

	"github.com/conneroisu/templmd/internal/config"
	"github.com/conneroisu/templmd/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "templmd",
	Short: "Render markdown with embedded templ components",
	Long: `templmd renders markdown documents to sanitized HTML and replaces custom
tags such as <alert type="warning"> or <badge/> with registered templ
components.

Quick Start:
  templmd render README.md           Render to stdout
  templmd render -o out.html doc.md  Render to a file
  templmd serve doc.md               Live preview in the browser
  templmd watch doc.md -o doc.html   Re-render on every save
  templmd components                 List the available components`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .templmd.yml, can also use "+config.ConfigFileEnv+" env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the configuration file and the environment.
// A missing configuration file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.ConfigFileEnv); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(config.ConfigName)
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.NewLogger(lc), nil
}
