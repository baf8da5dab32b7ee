// Package memory is an in-process implementation of every repository port.
// It backs the STORE=memory mode and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"oversight/internal/domain"
	"oversight/internal/ports"
)

// Store holds all records behind a single lock, so every write is one critical section.
type Store struct {
	mu          sync.RWMutex
	conventions map[uuid.UUID]domain.Convention
	enterprises map[uuid.UUID]domain.Enterprise
	users       map[uuid.UUID]domain.User
	documents   map[uuid.UUID]domain.Document
	indicators  map[uuid.UUID]domain.Indicator
	visits      map[uuid.UUID]domain.Visit
}

func New() *Store {
	return &Store{
		conventions: map[uuid.UUID]domain.Convention{},
		enterprises: map[uuid.UUID]domain.Enterprise{},
		users:       map[uuid.UUID]domain.User{},
		documents:   map[uuid.UUID]domain.Document{},
		indicators:  map[uuid.UUID]domain.Indicator{},
		visits:      map[uuid.UUID]domain.Visit{},
	}
}

// Repositories exposes the store through the repository ports.
func (s *Store) Repositories() ports.Store {
	return ports.Store{
		Conventions: s.Conventions(),
		Expiry:      s.Conventions(),
		Enterprises: s.Enterprises(),
		Users:       s.Users(),
		Documents:   s.Documents(),
		Indicators:  s.Indicators(),
		Visits:      s.Visits(),
	}
}

func (s *Store) Conventions() *Conventions { return &Conventions{s: s} }
func (s *Store) Enterprises() *Enterprises { return &Enterprises{s: s} }
func (s *Store) Users() *Users             { return &Users{s: s} }
func (s *Store) Documents() *Documents     { return &Documents{s: s} }
func (s *Store) Indicators() *Indicators   { return &Indicators{s: s} }
func (s *Store) Visits() *Visits           { return &Visits{s: s} }

// alive maps a cancelled or expired context to a persistence error.
func alive(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return domain.Persistence(op, err)
	}
	return nil
}

func sortedValues[T any](m map[uuid.UUID]T, keep func(T) bool, less func(a, b T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func pick[T any](m map[uuid.UUID]T, ids []uuid.UUID, clone func(T) T) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := m[id]; ok {
			out = append(out, clone(v))
		}
	}
	return out
}
