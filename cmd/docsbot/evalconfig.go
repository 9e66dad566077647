package main

import (
	"github.com/docsbot-dev/docsbot/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newEvalConfigCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "eval-config",
		Short: "Print the evaluation run configuration as yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := o.loadConfig()
			if err != nil {
				return err
			}

			ec, err := config.GetEvalConfig(v)
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()

			if err = enc.Encode(ec); err != nil {
				return errors.Wrap(err, "failed to encode evaluation configuration")
			}

			return nil
		},
	}
}
