package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB holds a datastore name and its leveldb instance
type LevelDB struct {
	Name     string
	database *leveldb.DB
}

// NewLevelDB instantiates and open a new LevelDB instance backed by a leveldb database. If the
// leveldb database doesn't exist, one is created
func NewLevelDB(name string, storagePath string) (ldb *LevelDB, err error) {
	// Expand '~' as the full home directory path if appropriate
	path, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(path, name)
	db, err := leveldb.OpenFile(fullPath, nil)

	if _, ok := err.(*leveldberrors.ErrCorrupted); ok {
		return nil, errors.Wrap(err, fmt.Sprintf("leveldb corrupted. Consider deleting [%s] and rebuilding if you don't mind losing data", fullPath))
	} else if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to open file with path [%s]", fullPath))
	}

	return &LevelDB{name, db}, nil
}

// OpenLevelDB opens an existing LevelDB without creating it. ErrNotFound is returned
// if there is no database for name at storagePath
func OpenLevelDB(name string, storagePath string) (ldb *LevelDB, err error) {
	path, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(path, name)
	db, err := leveldb.OpenFile(fullPath, &opt.Options{ErrorIfMissing: true})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "no database at [%s]", fullPath)
		}

		return nil, errors.Wrap(err, fmt.Sprintf("failed to open file with path [%s]", fullPath))
	}

	return &LevelDB{name, db}, nil
}

// Close closes the LevelDB
func (ldb *LevelDB) Close() (err error) {
	return ldb.database.Close()
}

// GetString retrieves a value associated to the key
func (ldb *LevelDB) GetString(key string) (value string, err error) {
	val, err := ldb.Get([]byte(key))

	return string(val), err
}

// Get retrieves a value associated to the key. ErrNotFound is returned if the key doesn't exist
func (ldb *LevelDB) Get(key []byte) (value []byte, err error) {
	value, err = ldb.database.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "key [%s]", key)
	}

	if err != nil {
		return nil, err
	}

	return value, nil
}

// PutString adds or updates a value associated to the key
func (ldb *LevelDB) PutString(key string, value string) (err error) {
	return ldb.database.Put([]byte(key), []byte(value), nil)
}

// Put adds or updates a value associated to the key
func (ldb *LevelDB) Put(key []byte, value []byte) (err error) {
	return ldb.database.Put(key, value, nil)
}

// DeleteString deletes the entry for the given key
func (ldb *LevelDB) DeleteString(key string) (err error) {
	return ldb.Delete([]byte(key))
}

// Delete deletes the entry for the given key
func (ldb *LevelDB) Delete(key []byte) (err error) {
	return ldb.database.Delete(key, nil)
}

// PutAll writes all key/values atomically
func (ldb *LevelDB) PutAll(entries map[string][]byte) (err error) {
	batch := new(leveldb.Batch)
	for k, v := range entries {
		batch.Put([]byte(k), v)
	}

	return ldb.database.Write(batch, nil)
}

// ReplaceAll atomically deletes every existing entry and writes entries in its place
func (ldb *LevelDB) ReplaceAll(entries map[string][]byte) (err error) {
	batch := new(leveldb.Batch)

	iter := ldb.database.NewIterator(nil, nil)
	for iter.Next() {
		if _, ok := entries[string(iter.Key())]; !ok {
			batch.Delete(append([]byte(nil), iter.Key()...))
		}
	}

	iter.Release()
	if err = iter.Error(); err != nil {
		return err
	}

	for k, v := range entries {
		batch.Put([]byte(k), v)
	}

	return ldb.database.Write(batch, nil)
}

// Scan returns the complete set of key/values from the database
func (ldb *LevelDB) Scan() (entries map[string]string, err error) {
	return ldb.ScanPrefix("")
}

// ScanPrefix returns the key/values of all keys starting with prefix
func (ldb *LevelDB) ScanPrefix(prefix string) (entries map[string]string, err error) {
	entries = map[string]string{}
	iter := ldb.database.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	for iter.Next() {
		key := string(iter.Key())
		value := string(iter.Value())
		entries[key] = value
	}

	iter.Release()
	err = iter.Error()

	return entries, err
}
