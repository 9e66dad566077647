package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/docsbot-dev/docsbot"
	"github.com/docsbot-dev/docsbot/apiclient"
	"github.com/docsbot-dev/docsbot/config"
	"github.com/docsbot-dev/docsbot/zendesk"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func newZendeskCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "zendesk",
		Short: "Answer new zendesk tickets with private comments until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runZendesk(cmd.Context(), o)
		},
	}
}

// newZendeskResponder creates the responder from the configuration. In test api mode, tickets
// are answered with placeholder text
func newZendeskResponder(v *viper.Viper, logger *zap.Logger, metricsOps *ops) (r *zendesk.Responder, zc *config.ZendeskConfig, err error) {
	if zc, err = config.GetZendeskConfig(v); err != nil {
		return nil, nil, err
	}

	var opts []zendesk.Option
	if zc.APIToken != "" {
		opts = append(opts, zendesk.OptionAPIToken(zc.APIToken))
	}

	tickets, err := zendesk.New(zc.BaseURL, zc.Email, zc.Password, opts...)
	if err != nil {
		return nil, nil, err
	}

	var api zendesk.Querier = zendesk.PlaceholderQuerier{}
	if !zc.TestAPI {
		if api, err = apiclient.New(v.GetString(config.APIURLKey), apiclient.OptionTimeout(v.GetDuration(config.APITimeoutKey))); err != nil {
			return nil, nil, err
		}
	}

	if r, err = zendesk.NewResponder(tickets, api, zc, logger, metricsOps.meterProvider.Meter("docsbot/zendesk")); err != nil {
		return nil, nil, errors.Wrap(err, "failed to create zendesk responder")
	}

	return r, zc, nil
}

func runZendesk(ctx context.Context, o *options) (err error) {
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

	responder, zc, err := newZendeskResponder(v, logger, metricsOps)
	if err != nil {
		return err
	}

	var server *http.Server
	if addr := v.GetString(config.MetricsAddrKey); addr != "" {
		server = metricsOps.serve(addr, logger)
	}
	defer func() {
		if err := metricsOps.shutdown(server); err != nil {
			logger.Warn("Failed to shut down ops", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting zendesk responder", zap.String("zendesk", zc.BaseURL), zap.Bool("testAPI", zc.TestAPI))

	return responder.Run(ctx)
}
