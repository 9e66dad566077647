package docsbot

import (
	"context"
	"time"

	"github.com/slack-go/slack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EmojiReactorWithTelemetry implements EmojiReactor interface with all methods wrapped
// with open telemetry metrics
type EmojiReactorWithTelemetry struct {
	base        EmojiReactor
	instruments map[string]methodInstruments
	attrs       metric.MeasurementOption
}

// NewEmojiReactorWithTelemetry returns an instance of the EmojiReactor decorated with open telemetry timing and count metrics
func NewEmojiReactorWithTelemetry(base EmojiReactor, name string, meter metric.Meter) (d EmojiReactorWithTelemetry, err error) {
	instruments, err := newMethodInstruments("EmojiReactor", []string{"AddReactionContext"}, meter)
	if err != nil {
		return d, err
	}

	return EmojiReactorWithTelemetry{
		base:        base,
		instruments: instruments,
		attrs:       metric.WithAttributes(attribute.String("name", name)),
	}, nil
}

// AddReactionContext implements EmojiReactor
func (_d EmojiReactorWithTelemetry) AddReactionContext(ctx context.Context, name string, item slack.ItemRef) (err error) {
	_since := time.Now()
	defer func() {
		_d.instruments["AddReactionContext"].record(ctx, _since, err, _d.attrs)
	}()
	return _d.base.AddReactionContext(ctx, name, item)
}
