package datastoredb

import (
	"context"
	"time"

	"cloud.google.com/go/datastore"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// methodInstruments holds the instruments of a datastorer method
type methodInstruments struct {
	calls     metric.Int64Counter
	errors    metric.Int64Counter
	latencyMs metric.Int64Histogram
}

// datastorerWithTelemetry implements datastorer interface with all methods wrapped
// with open telemetry metrics
type datastorerWithTelemetry struct {
	base        datastorer
	instruments map[string]methodInstruments
	attrs       metric.MeasurementOption
}

// newDatastorerWithTelemetry returns an instance of the datastorer decorated with open telemetry timing and count metrics
func newDatastorerWithTelemetry(base datastorer, name string, meter metric.Meter) (d datastorerWithTelemetry, err error) {
	d.base = base
	d.attrs = metric.WithAttributes(attribute.String("name", name))
	d.instruments = make(map[string]methodInstruments)

	for _, m := range []string{"connect", "Close", "Delete", "Get", "GetAll", "Put"} {
		var mi methodInstruments

		if mi.calls, err = meter.Int64Counter("datastorer_" + m + "_Calls"); err != nil {
			return d, err
		}

		if mi.errors, err = meter.Int64Counter("datastorer_" + m + "_Errors"); err != nil {
			return d, err
		}

		if mi.latencyMs, err = meter.Int64Histogram("datastorer_"+m+"_ProcessingTimeMillis", metric.WithUnit("ms")); err != nil {
			return d, err
		}

		d.instruments[m] = mi
	}

	return d, nil
}

// record records a call to method started at since. Missing entities aren't errors
func (_d datastorerWithTelemetry) record(ctx context.Context, method string, since time.Time, err error) {
	mi := _d.instruments[method]
	if err != nil && err != datastore.ErrNoSuchEntity {
		mi.errors.Add(ctx, 1, _d.attrs)
	}

	mi.calls.Add(ctx, 1, _d.attrs)
	mi.latencyMs.Record(ctx, time.Since(since).Milliseconds(), _d.attrs)
}

// connect implements datastorer
func (_d datastorerWithTelemetry) connect() (err error) {
	_since := time.Now()
	defer func() {
		_d.record(context.Background(), "connect", _since, err)
	}()
	return _d.base.connect()
}

// Close implements datastorer
func (_d datastorerWithTelemetry) Close() (err error) {
	_since := time.Now()
	defer func() {
		_d.record(context.Background(), "Close", _since, err)
	}()
	return _d.base.Close()
}

// Delete implements datastorer
func (_d datastorerWithTelemetry) Delete(c context.Context, k *datastore.Key) (err error) {
	_since := time.Now()
	defer func() {
		_d.record(c, "Delete", _since, err)
	}()
	return _d.base.Delete(c, k)
}

// Get implements datastorer
func (_d datastorerWithTelemetry) Get(c context.Context, k *datastore.Key, dest interface{}) (err error) {
	_since := time.Now()
	defer func() {
		_d.record(c, "Get", _since, err)
	}()
	return _d.base.Get(c, k, dest)
}

// GetAll implements datastorer
func (_d datastorerWithTelemetry) GetAll(c context.Context, query *datastore.Query, dest interface{}) (keys []*datastore.Key, err error) {
	_since := time.Now()
	defer func() {
		_d.record(c, "GetAll", _since, err)
	}()
	return _d.base.GetAll(c, query, dest)
}

// Put implements datastorer
func (_d datastorerWithTelemetry) Put(c context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error) {
	_since := time.Now()
	defer func() {
		_d.record(c, "Put", _since, err)
	}()
	return _d.base.Put(c, k, v)
}
