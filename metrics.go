package docsbot

import (
	"context"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	eventKind  = "event"
	actionKind = "action"
)

// instrumenter holds data for core instrumentation
type instrumenter struct {
	appName     string
	coreMetrics coreMetrics
}

// coreMetrics holds core docsbot metrics
type coreMetrics struct {
	interactionsSeen        metric.Int64Counter
	interactionsProcessed   metric.Int64Counter
	processingLatencyMillis metric.Int64Histogram
	dispatchLatencyMillis   metric.Int64Histogram
	stepFailures            metric.Int64Counter
	feedbackSubmitted       metric.Int64Counter
	defaultAttributes       metric.MeasurementOption
}

// newInstrumenter creates a new core instrumenter
func newInstrumenter(appName string, meter metric.Meter) (ins *instrumenter, err error) {
	ins = new(instrumenter)
	ins.appName = appName
	ins.coreMetrics.defaultAttributes = metric.WithAttributes(attribute.String("name", appName))

	if ins.coreMetrics.interactionsSeen, err = meter.Int64Counter("interactionsSeen"); err != nil {
		return nil, err
	}

	if ins.coreMetrics.interactionsProcessed, err = meter.Int64Counter("interactionsProcessed"); err != nil {
		return nil, err
	}

	if ins.coreMetrics.processingLatencyMillis, err = meter.Int64Histogram("interactionProcessingLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if ins.coreMetrics.dispatchLatencyMillis, err = meter.Int64Histogram("interactionDispatchLatencyMillis", metric.WithUnit("ms")); err != nil {
		return nil, err
	}

	if ins.coreMetrics.stepFailures, err = meter.Int64Counter("stepFailures"); err != nil {
		return nil, err
	}

	if ins.coreMetrics.feedbackSubmitted, err = meter.Int64Counter("feedbackSubmitted"); err != nil {
		return nil, err
	}

	return ins, nil
}

// handlerAttributes returns the attributes identifying a handler
func (ins *instrumenter) handlerAttributes(kind string, name string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("name", ins.appName), attribute.String("kind", kind), attribute.String("handler", name))
}

// recordProcessed records the processing of an interaction by a handler
func (ins *instrumenter) recordProcessed(ctx context.Context, kind string, name string, d time.Duration) {
	attrs := ins.handlerAttributes(kind, name)
	ins.coreMetrics.interactionsProcessed.Add(ctx, 1, attrs)
	ins.coreMetrics.processingLatencyMillis.Record(ctx, d.Milliseconds(), attrs)
}

// recordStepFailure records the failure of a handler step
func (ins *instrumenter) recordStepFailure(ctx context.Context, step string) {
	ins.coreMetrics.stepFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("name", ins.appName), attribute.String("step", step)))
}

// recordFeedback records feedback submitted with a rating
func (ins *instrumenter) recordFeedback(ctx context.Context, rating int) {
	ins.coreMetrics.feedbackSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("name", ins.appName), attribute.Int("rating", rating)))
}

// methodInstruments holds the instruments of a decorated interface method
type methodInstruments struct {
	calls     metric.Int64Counter
	errors    metric.Int64Counter
	latencyMs metric.Int64Histogram
}

// newMethodInstruments creates call and error counters as well as a processing time histogram
// for each method of an interface. Instruments are named <interface>_<method>_<suffix>
func newMethodInstruments(iface string, methods []string, meter metric.Meter) (instruments map[string]methodInstruments, err error) {
	instruments = make(map[string]methodInstruments)

	for _, m := range methods {
		var mi methodInstruments

		if mi.calls, err = meter.Int64Counter(instrumentName(iface, m, "Calls")); err != nil {
			return nil, err
		}

		if mi.errors, err = meter.Int64Counter(instrumentName(iface, m, "Errors")); err != nil {
			return nil, err
		}

		if mi.latencyMs, err = meter.Int64Histogram(instrumentName(iface, m, "ProcessingTimeMillis"), metric.WithUnit("ms")); err != nil {
			return nil, err
		}

		instruments[m] = mi
	}

	return instruments, nil
}

// record records a call to a method started at since and returning err
func (mi methodInstruments) record(ctx context.Context, since time.Time, err error, attrs metric.MeasurementOption) {
	if err != nil {
		mi.errors.Add(ctx, 1, attrs)
	}

	mi.calls.Add(ctx, 1, attrs)
	mi.latencyMs.Record(ctx, time.Since(since).Milliseconds(), attrs)
}

// instrumentName returns the name of an instrument starting with a lower case letter
func instrumentName(iface string, method string, suffix string) string {
	n := []rune(iface + "_" + method + "_" + suffix)
	n[0] = unicode.ToLower(n[0])

	return string(n)
}

type timed func()

// measure returns the execution duration of a timed function
func measure(operation timed) (d time.Duration) {
	before := time.Now()

	operation()

	return time.Since(before)
}
