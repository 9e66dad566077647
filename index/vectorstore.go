package index

import (
	"fmt"
	"sort"
	"sync"
)

// SearchResult is a vector matching a query along with its squared L2 distance to the query
type SearchResult struct {
	ID       string
	Distance float32
}

// FlatL2Store is an exact nearest neighbor vector store. Vectors are compared to the query
// one by one using the squared euclidean distance. It is safe for concurrent use
type FlatL2Store struct {
	dim int

	mu      sync.RWMutex
	ids     []string
	vectors []float32
}

// NewFlatL2Store returns an empty store for vectors of dim dimensions
func NewFlatL2Store(dim int) (s *FlatL2Store) {
	return &FlatL2Store{dim: dim}
}

// Dimensions returns the dimensions of the stored vectors
func (s *FlatL2Store) Dimensions() int {
	return s.dim
}

// Len returns the number of stored vectors
func (s *FlatL2Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ids)
}

// Add adds a vector identified by id
func (s *FlatL2Store) Add(id string, vector []float32) (err error) {
	if len(vector) != s.dim {
		return fmt.Errorf("vector [%s] has %d dimensions, expected %d", id, len(vector), s.dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = append(s.ids, id)
	s.vectors = append(s.vectors, vector...)

	return nil
}

// Reset removes all stored vectors
func (s *FlatL2Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = nil
	s.vectors = nil
}

// Search returns the k vectors closest to query, closest first. Fewer than k results are
// returned when the store holds fewer vectors
func (s *FlatL2Store) Search(query []float32, k int) (results []SearchResult, err error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("query vector has %d dimensions, expected %d", len(query), s.dim)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results = make([]SearchResult, 0, len(s.ids))
	for i, id := range s.ids {
		results = append(results, SearchResult{ID: id, Distance: squaredL2(query, s.vectors[i*s.dim:(i+1)*s.dim])})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })

	if k < len(results) {
		results = results[:k]
	}

	return results, nil
}

func squaredL2(a []float32, b []float32) (d float32) {
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}

	return d
}
