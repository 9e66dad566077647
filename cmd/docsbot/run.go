package main

import (
	"context"
	"net/http"

	"github.com/docsbot-dev/docsbot"
	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/docsbot-dev/docsbot/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Connect to slack and answer questions until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), o)
		},
	}
}

func runBot(ctx context.Context, o *options) (err error) {
	v, err := o.loadConfig()
	if err != nil {
		return err
	}

	logger, err := docsbot.NewZapLogger(v.GetString(config.LogLevelKey))
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer func() {
		_ = logger.Sync()
	}()

	metricsOps, err := newOps()
	if err != nil {
		return err
	}

	bot, err := docsbot.NewBot(v, docsbot.OptionLog(logger), docsbot.OptionMeter(metricsOps.meterProvider.Meter("docsbot"))).
		WithAPIErr(apiclient.New(v.GetString(config.APIURLKey), apiclient.OptionTimeout(v.GetDuration(config.APITimeoutKey)))).
		Build()
	if err != nil {
		return err
	}
	defer bot.Close()

	var server *http.Server
	if addr := v.GetString(config.MetricsAddrKey); addr != "" {
		server = metricsOps.serve(addr, logger)
	}
	defer func() {
		if err := metricsOps.shutdown(server); err != nil {
			logger.Warn("Failed to shut down ops", zap.Error(err))
		}
	}()

	return bot.Run(ctx)
}
