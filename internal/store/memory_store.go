package store

import (
	"context"
	"sync"
	"time"

	"github.com/jpacas/gtd-neto/internal/model"
)

// MemoryStore is a map-backed Store used by service tests and local
// experiments. It honors the same owner-scoping contract as the real
// backends.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[string]map[string]model.Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{owners: map[string]map[string]model.Item{}}
}

func (s *MemoryStore) itemsLocked(owner string) map[string]model.Item {
	m, ok := s.owners[owner]
	if !ok {
		m = map[string]model.Item{}
		s.owners[owner] = m
	}
	return m
}

func (s *MemoryStore) LoadAll(ctx context.Context, owner string) ([]model.Item, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Item, 0, len(s.owners[owner]))
	for _, it := range s.owners[owner] {
		out = append(out, it)
	}
	return out, nil
}

func (s *MemoryStore) LoadByList(ctx context.Context, owner string, list model.List, excludeDone bool) ([]model.Item, error) {
	all, err := s.LoadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(all))
	for _, it := range all {
		if it.List != list {
			continue
		}
		if excludeDone && it.Status == model.StatusDone {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *MemoryStore) LoadByStatus(ctx context.Context, owner string, status model.Status) ([]model.Item, error) {
	all, err := s.LoadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(all))
	for _, it := range all {
		if it.Status == status {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *MemoryStore) LoadByID(ctx context.Context, owner, id string) (model.Item, error) {
	if err := checkOwner(owner); err != nil {
		return model.Item{}, err
	}
	if err := checkID(id); err != nil {
		return model.Item{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.owners[owner][id]
	if !ok {
		return model.Item{}, ErrNotFound
	}
	return it, nil
}

func (s *MemoryStore) SaveAll(ctx context.Context, owner string, items []model.Item) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]model.Item, len(items))
	for _, it := range items {
		if err := checkID(it.ID); err != nil {
			return err
		}
		next[it.ID] = it
	}
	s.owners[owner] = next
	return nil
}

func (s *MemoryStore) SaveOne(ctx context.Context, owner string, item model.Item) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if err := checkID(item.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.itemsLocked(owner)[item.ID] = item
	return nil
}

func (s *MemoryStore) DeleteOne(ctx context.Context, owner, id string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.owners[owner], id)
	return nil
}

func (s *MemoryStore) FindRecentDuplicate(ctx context.Context, owner, input string, now time.Time) (*model.Item, error) {
	all, err := s.LoadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if isDuplicateCandidate(all[i], input, now) {
			return &all[i], nil
		}
	}
	return nil, nil
}
