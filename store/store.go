// Package store provides the storage used by docsbot to cache embeddings and persist
// vector indexes. LevelDB implements both StringStorer and BytesStorer
package store

import (
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when getting a key that isn't stored
var ErrNotFound = errors.New("not found")

// StringStorer is implemented by any value that has the GetString, PutString, DeleteString,
// Scan and Close methods
type StringStorer interface {
	io.Closer
	GetString(key string) (value string, err error)
	PutString(key string, value string) (err error)
	DeleteString(key string) (err error)
	Scan() (entries map[string]string, err error)
}

// BytesStorer is implemented by any value that has the Get, Put, Delete and Close methods
type BytesStorer interface {
	io.Closer
	Get(key []byte) (value []byte, err error)
	Put(key []byte, value []byte) (err error)
	Delete(key []byte) (err error)
}

// IsNotFound returns true if err means a key wasn't found in a storer
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
