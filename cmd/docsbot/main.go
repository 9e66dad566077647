// Command docsbot runs the docs slack bot and the tools around its answering pipeline: building the
// vector index, asking questions from the command line, answering zendesk tickets and printing the
// evaluation configuration
package main

import (
	"os"

	"github.com/docsbot-dev/docsbot/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options holds the flags shared by all commands
type options struct {
	configPath string
	language   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := new(options)

	root := &cobra.Command{
		Use:          "docsbot",
		Short:        "docsbot answers documentation questions on slack",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "path to a configuration file (yaml, json or toml)")
	root.PersistentFlags().StringVarP(&o.language, "language", "l", "", "language of the bot, en or ja (defaults to the configured language)")

	root.AddCommand(newRunCmd(o))
	root.AddCommand(newIndexCmd(o))
	root.AddCommand(newAskCmd(o))
	root.AddCommand(newEvalConfigCmd(o))
	root.AddCommand(newZendeskCmd(o))

	return root
}

// loadConfig layers the configuration file and flags over the defaults and environment
func (o *options) loadConfig() (v *viper.Viper, err error) {
	v = config.NewViperWithDefaults()
	config.LayerEvalConfigWithDefaults(v)
	config.LayerIndexConfigWithDefaults(v)
	config.LayerZendeskConfigWithDefaults(v)

	if o.configPath != "" {
		v.SetConfigFile(o.configPath)
		if err = v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read configuration file [%s]", o.configPath)
		}
	}

	if o.language != "" {
		v.Set(config.LanguageKey, o.language)
	}

	return v, nil
}
