// Package collection persists the user's plant records and the list of every
// image URI they picked, as two JSON arrays in a flat key-value namespace.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const (
	KeyImages = "savedImages"
	KeyPlants = "savedPlants"
)

var (
	// ErrStorageRead wraps failures reading the underlying namespace.
	ErrStorageRead = errors.New("storage read failed")
	// ErrStorageWrite wraps failures writing the underlying namespace.
	ErrStorageWrite = errors.New("storage write failed")
)

// Namespace is the subset of storage.Namespace the store needs.
type Namespace interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Store reads and writes the image and plant lists. Every mutation is a full
// read, modify, full write of one key.
type Store struct {
	ns     Namespace
	newID  func() string
	logger *slog.Logger

	// mu serialises read-modify-write cycles within the process.
	mu sync.Mutex
}

// New creates a Store on top of ns.
func New(ns Namespace) *Store {
	return &Store{
		ns:     ns,
		newID:  func() string { return uuid.New().String() },
		logger: slog.Default(),
	}
}

// ListPlants returns saved plants in insertion order. A missing or malformed
// list is reported as empty.
func (s *Store) ListPlants(ctx context.Context) ([]Plant, error) {
	return readList[Plant](ctx, s, KeyPlants)
}

// ListImageURIs returns every recorded image URI in insertion order.
func (s *Store) ListImageURIs(ctx context.Context) ([]string, error) {
	return readList[string](ctx, s, KeyImages)
}

// AppendImageURI records uri at the end of the image list. Duplicates are kept.
func (s *Store) AppendImageURI(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	images, err := readList[string](ctx, s, KeyImages)
	if err != nil {
		return err
	}
	return writeList(ctx, s, KeyImages, append(images, uri))
}

// SavePlant assigns a fresh ID to c, appends it and returns the stored record.
func (s *Store) SavePlant(ctx context.Context, c Candidate) (Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := readList[Plant](ctx, s, KeyPlants)
	if err != nil {
		return Plant{}, err
	}

	p := c.withID(s.newID())
	if err := writeList(ctx, s, KeyPlants, append(plants, p)); err != nil {
		return Plant{}, err
	}
	s.logger.Debug("plant saved", "id", p.ID, "name", p.Name)
	return p, nil
}

// DeletePlant removes the record with the given id. An unknown id is a no-op.
func (s *Store) DeletePlant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plants, err := readList[Plant](ctx, s, KeyPlants)
	if err != nil {
		return err
	}

	kept := plants[:0:0]
	for _, p := range plants {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(plants) {
		return nil
	}
	if err := writeList(ctx, s, KeyPlants, kept); err != nil {
		return err
	}
	s.logger.Debug("plant deleted", "id", id)
	return nil
}

func readList[T any](ctx context.Context, s *Store, key string) ([]T, error) {
	raw, ok, err := s.ns.Get(ctx, key)
	if err != nil {
		s.logger.Error("reading collection", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	if !ok || raw == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("stored collection is malformed, treating as empty", "key", key, "error", err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func writeList[T any](ctx context.Context, s *Store, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrStorageWrite, key, err)
	}
	if err := s.ns.Set(ctx, key, string(data)); err != nil {
		s.logger.Error("writing collection", "key", key, "error", err)
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}
