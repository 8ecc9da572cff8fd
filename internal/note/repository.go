package note

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/orchestrix/apiresponder/pkg/apiresponse"
)

// Repository stores notes
type Repository interface {
	List(ctx context.Context, page, limit int) (apiresponse.Page[*Note], error)
	Get(ctx context.Context, id uuid.UUID) (*Note, error)
	Create(ctx context.Context, n *Note) error
	Update(ctx context.Context, n *Note) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MemoryRepository keeps notes in process memory, oldest first
type MemoryRepository struct {
	mu    sync.RWMutex
	notes map[uuid.UUID]*Note
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notes: make(map[uuid.UUID]*Note)}
}

func (m *MemoryRepository) List(ctx context.Context, page, limit int) (apiresponse.Page[*Note], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*Note, 0, len(m.notes))
	for _, n := range m.notes {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	items := make([]*Note, 0, end-start)
	for _, n := range all[start:end] {
		items = append(items, clone(n))
	}
	return apiresponse.NewPage(items, int64(len(all)), limit, page), nil
}

func (m *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.notes[id]; ok {
		return clone(n), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) Create(ctx context.Context, n *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[n.ID] = clone(n)
	return nil
}

func (m *MemoryRepository) Update(ctx context.Context, n *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[n.ID]; !ok {
		return ErrNotFound
	}
	m.notes[n.ID] = clone(n)
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func clone(n *Note) *Note {
	c := *n
	c.Tags = append([]string{}, n.Tags...)
	return &c
}
