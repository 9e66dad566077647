package datastoredb

import (
	"context"

	"cloud.google.com/go/datastore"
	"github.com/docsbot-dev/docsbot/store"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"google.golang.org/api/option"
)

const (
	testConnectivityKey = "testConnectivity"
)

// DatastoreDB implements the docsbot StringStorer interface. It maps
// the given name (usually what is cached, like embeddings) to the datastore entity Kind
// to isolate data of different stores
type DatastoreDB struct {
	datastorer
	kind string
}

// EntryValue represents an entity/entry value mapped to a datastore key
type EntryValue struct {
	Value string `datastore:",noindex"`
}

// New returns a new instance of DatastoreDB for the given name (which maps to the datastore entity "Kind" and can
// be thought of as the namespace). This function also requires a gcloudProjectID as well as at least one option to provide gcloud client credentials.
// Calls to the datastore are instrumented with the global open telemetry meter provider
func New(name string, gcloudProjectID string, gcloudClientOpts ...option.ClientOption) (dsdb *DatastoreDB, err error) {
	gcd := &gcdatastore{gcloudProjectID: gcloudProjectID, gcloudClientOpts: gcloudClientOpts}

	ds, err := newDatastorerWithTelemetry(gcd, name, otel.GetMeterProvider().Meter("datastoredb"))
	if err != nil {
		return nil, err
	}

	return newWithDatastorer(name, ds)
}

// newWithDatastorer connects the datastorer and validates connectivity before returning a new DatastoreDB
func newWithDatastorer(name string, ds datastorer) (dsdb *DatastoreDB, err error) {
	dsdb = new(DatastoreDB)
	dsdb.datastorer = ds
	dsdb.kind = name

	if err = dsdb.connect(); err != nil {
		return nil, err
	}

	if err = dsdb.testDB(); err != nil {
		// The connectivity error is more relevant than a failure to close
		_ = dsdb.Close()
		return nil, err
	}

	return dsdb, nil
}

// testDB makes a lightweight call to the datastore to validate connectivity and credentials
func (dsdb *DatastoreDB) testDB() (err error) {
	var e EntryValue
	err = dsdb.Get(context.Background(), datastore.NameKey(dsdb.kind, testConnectivityKey, nil), &e)

	if err != nil && err != datastore.ErrNoSuchEntity {
		return err
	}

	return nil
}

// withReconnect runs op and, if it fails with something else than a missing entity, reconnects
// and runs it once more. This recovers from expired credentials on long running processes
func (dsdb *DatastoreDB) withReconnect(op func() error) (err error) {
	err = op()
	if err == nil || err == datastore.ErrNoSuchEntity {
		return err
	}

	if cerr := dsdb.connect(); cerr != nil {
		return err
	}

	if terr := dsdb.testDB(); terr != nil {
		return err
	}

	return op()
}

// GetString returns the value associated to a given key. If the value is not
// found, the zero-value string is returned along with an error matching store.ErrNotFound
func (dsdb *DatastoreDB) GetString(key string) (value string, err error) {
	var e EntryValue
	k := datastore.NameKey(dsdb.kind, key, nil)

	err = dsdb.withReconnect(func() error {
		return dsdb.Get(context.Background(), k, &e)
	})

	if err == datastore.ErrNoSuchEntity {
		return "", errors.Wrapf(store.ErrNotFound, "key [%s]", key)
	}

	if err != nil {
		return "", err
	}

	return e.Value, nil
}

// PutString stores the key/value to the database
func (dsdb *DatastoreDB) PutString(key string, value string) (err error) {
	k := datastore.NameKey(dsdb.kind, key, nil)

	return dsdb.withReconnect(func() error {
		_, err := dsdb.Put(context.Background(), k, &EntryValue{Value: value})
		return err
	})
}

// DeleteString deletes the entry for the given key
func (dsdb *DatastoreDB) DeleteString(key string) (err error) {
	k := datastore.NameKey(dsdb.kind, key, nil)

	return dsdb.withReconnect(func() error {
		return dsdb.Delete(context.Background(), k)
	})
}

// Scan returns all key/values from the database
func (dsdb *DatastoreDB) Scan() (entries map[string]string, err error) {
	var vals []*EntryValue
	var keys []*datastore.Key

	err = dsdb.withReconnect(func() (err error) {
		keys, err = dsdb.GetAll(context.Background(), datastore.NewQuery(dsdb.kind), &vals)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries = make(map[string]string)
	for i, key := range keys {
		entries[key.Name] = vals[i].Value
	}

	return entries, nil
}
