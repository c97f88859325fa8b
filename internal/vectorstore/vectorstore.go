// Package vectorstore implements domain.VectorStore over
// github.com/coder/hnsw, a pure-Go HNSW implementation (no CGO, unlike the
// mattn/go-sqlite3-style native alternatives this module avoids elsewhere).
package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/symbolgraph/symbolgraph/internal/domain"
)

// Config tunes a collection's HNSW graph.
type Config struct {
	Dimensions int
	Metric     string // "cos" or "l2"
	M          int
	EfSearch   int
}

// DefaultConfig returns sensible defaults for dims-dimensional vectors.
func DefaultConfig(dims int) Config {
	return Config{
		Dimensions: dims,
		Metric:     "cos",
		M:          16,
		EfSearch:   20,
	}
}

// ErrDimensionMismatch is returned when a vector's length doesn't match the
// collection's configured Dimensions.
type ErrDimensionMismatch struct {
	Collection string
	Expected   int
	Got        int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vectorstore: dimension mismatch in collection %q: expected %d, got %d", e.Collection, e.Expected, e.Got)
}

// Store is a domain.VectorStore backed by one HNSW graph per collection,
// created lazily on first use with the dimensions of its first batch.
type Store struct {
	mu          sync.RWMutex
	metric      string
	m           int
	efSearch    int
	collections map[string]*collection
}

type collection struct {
	graph  *hnsw.Graph[uint64]
	dims   int
	idMap  map[string]uint64
	keyMap map[uint64]string
	next   uint64
	docs   map[string]domain.VectorDoc
}

var _ domain.VectorStore = (*Store)(nil)

// New creates a Store; metric, m, and efSearch apply to every collection
// created through it.
func New(metric string, m, efSearch int) *Store {
	if metric == "" {
		metric = "cos"
	}
	if m == 0 {
		m = 16
	}
	if efSearch == 0 {
		efSearch = 20
	}
	return &Store{
		metric:      metric,
		m:           m,
		efSearch:    efSearch,
		collections: make(map[string]*collection),
	}
}

// AddDocuments inserts or replaces documents in collection. The collection's
// dimensionality is fixed by the first Add call.
func (s *Store) AddDocuments(_ context.Context, collectionName string, docs []domain.VectorDoc) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collections[collectionName]
	if c == nil {
		c = s.newCollection(len(docs[0].Vector))
		s.collections[collectionName] = c
	}

	for _, doc := range docs {
		if len(doc.Vector) != c.dims {
			return ErrDimensionMismatch{Collection: collectionName, Expected: c.dims, Got: len(doc.Vector)}
		}
	}

	for _, doc := range docs {
		if existingKey, exists := c.idMap[doc.ID]; exists {
			// Lazy delete: orphan the old key rather than calling graph.Delete,
			// which corrupts coder/hnsw's graph when removing the last node.
			delete(c.keyMap, existingKey)
			delete(c.idMap, doc.ID)
		}

		key := c.next
		c.next++

		vec := make([]float32, len(doc.Vector))
		copy(vec, doc.Vector)
		if s.metric == "cos" {
			normalizeInPlace(vec)
		}

		c.graph.Add(hnsw.MakeNode(key, vec))
		c.idMap[doc.ID] = key
		c.keyMap[key] = doc.ID
		c.docs[doc.ID] = doc
	}

	return nil
}

func (s *Store) newCollection(dims int) *collection {
	graph := hnsw.NewGraph[uint64]()
	switch s.metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = s.m
	graph.EfSearch = s.efSearch
	graph.Ml = 0.25

	return &collection{
		graph:  graph,
		dims:   dims,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
		docs:   make(map[string]domain.VectorDoc),
	}
}

// SearchSimilar returns the k nearest documents to query, filtered to those
// at or above threshold similarity.
func (s *Store) SearchSimilar(_ context.Context, collectionName string, query []float32, k int, threshold float64) ([]domain.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collectionName]
	if !ok || c.graph.Len() == 0 {
		return nil, nil
	}
	if len(query) != c.dims {
		return nil, ErrDimensionMismatch{Collection: collectionName, Expected: c.dims, Got: len(query)}
	}

	q := make([]float32, len(query))
	copy(q, query)
	if s.metric == "cos" {
		normalizeInPlace(q)
	}

	nodes := c.graph.Search(q, k)
	hits := make([]domain.VectorHit, 0, len(nodes))
	for _, n := range nodes {
		id, ok := c.keyMap[n.Key]
		if !ok {
			continue
		}
		distance := c.graph.Distance(q, n.Value)
		score := float64(distanceToScore(distance, s.metric))
		if score < threshold {
			continue
		}
		doc := c.docs[id]
		hits = append(hits, domain.VectorHit{ID: id, Score: score, Content: doc.Content, Metadata: doc.Metadata})
	}
	return hits, nil
}

// Close is a no-op: the HNSW graphs live in memory only, with persistence
// left to a future on-disk snapshot if this core ever needs restart-free
// warm starts.
func (s *Store) Close() error { return nil }

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case "l2":
		return 1.0 / (1.0 + distance)
	default:
		return 1.0 - distance/2.0
	}
}
