package docsbot

import (
	"context"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// chatDriverWithTelemetry implements chatDriver interface with all methods wrapped
// with open telemetry metrics
type chatDriverWithTelemetry struct {
	base        chatDriver
	instruments map[string]methodInstruments
	attrs       metric.MeasurementOption
}

// newChatDriverWithTelemetry returns an instance of the chatDriver decorated with open telemetry timing and count metrics
func newChatDriverWithTelemetry(base chatDriver, name string, meter metric.Meter) (d chatDriverWithTelemetry, err error) {
	instruments, err := newMethodInstruments("chatDriver", []string{"PostMessageContext", "GetConversationRepliesContext"}, meter)
	if err != nil {
		return d, err
	}

	return chatDriverWithTelemetry{
		base:        base,
		instruments: instruments,
		attrs:       metric.WithAttributes(attribute.String("name", name)),
	}, nil
}

// PostMessageContext implements chatDriver
func (_d chatDriverWithTelemetry) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error) {
	_since := time.Now()
	defer func() {
		_d.instruments["PostMessageContext"].record(ctx, _since, err, _d.attrs)
	}()
	return _d.base.PostMessageContext(ctx, channelID, options...)
}

// GetConversationRepliesContext implements chatDriver
func (_d chatDriverWithTelemetry) GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) (msgs []slack.Message, hasMore bool, nextCursor string, err error) {
	_since := time.Now()
	defer func() {
		_d.instruments["GetConversationRepliesContext"].record(ctx, _since, err, _d.attrs)
	}()
	return _d.base.GetConversationRepliesContext(ctx, params)
}
