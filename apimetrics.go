package docsbot

import (
	"context"
	"time"

	"github.com/docsbot-dev/docsbot/apiclient"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// apiWithTelemetry implements API interface with all methods wrapped
// with open telemetry metrics
type apiWithTelemetry struct {
	base        API
	instruments map[string]methodInstruments
	attrs       metric.MeasurementOption
}

// newAPIWithTelemetry returns an instance of the API decorated with open telemetry timing and count metrics
func newAPIWithTelemetry(base API, name string, meter metric.Meter) (d apiWithTelemetry, err error) {
	instruments, err := newMethodInstruments("api", []string{"GetChatHistory", "Query", "CreateQuestionAnswer", "GenerateAds", "CreateFeedback"}, meter)
	if err != nil {
		return d, err
	}

	return apiWithTelemetry{
		base:        base,
		instruments: instruments,
		attrs:       metric.WithAttributes(attribute.String("name", name)),
	}, nil
}

// GetChatHistory implements API
func (_d apiWithTelemetry) GetChatHistory(ctx context.Context, application string, threadID string) (history []apiclient.QuestionAnswer, err error) {
	_since := time.Now()
	defer func() {
		_d.instruments["GetChatHistory"].record(ctx, _since, err, _d.attrs)
	}()
	return _d.base.GetChatHistory(ctx, application, threadID)
}

// Query implements API
func (_d apiWithTelemetry) Query(ctx context.Context, req apiclient.QueryRequest) (resp *apiclient.QueryResponse, err error) {
	_since := time.Now()
	defer func() {
		_d.instruments["Query"].record(ctx, _since, err, _d.attrs)
	}()
	return _d.base.Query(ctx, req)
}

// CreateQuestionAnswer implements API
func (_d apiWithTelemetry) CreateQuestionAnswer(ctx context.Context, qa apiclient.QuestionAnswerCreate) (err error) {
	_since := time.Now()
	defer func() {
		_d.instruments["CreateQuestionAnswer"].record(ctx, _since, err, _d.attrs)
	}()
	return _d.base.CreateQuestionAnswer(ctx, qa)
}

// GenerateAds implements API
func (_d apiWithTelemetry) GenerateAds(ctx context.Context, req apiclient.AdCopyRequest) (resp *apiclient.AdCopyResponse, err error) {
	_since := time.Now()
	defer func() {
		_d.instruments["GenerateAds"].record(ctx, _since, err, _d.attrs)
	}()
	return _d.base.GenerateAds(ctx, req)
}

// CreateFeedback implements API
func (_d apiWithTelemetry) CreateFeedback(ctx context.Context, fb apiclient.FeedbackCreate) (err error) {
	_since := time.Now()
	defer func() {
		_d.instruments["CreateFeedback"].record(ctx, _since, err, _d.attrs)
	}()
	return _d.base.CreateFeedback(ctx, fb)
}
