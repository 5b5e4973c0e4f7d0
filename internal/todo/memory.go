package todo

import (
	"context"
	"sync"
)

// MemoryRepository keeps todos in process memory. It is safe for concurrent use.
type MemoryRepository struct {
	mu       sync.RWMutex
	todos    []Todo
	strategy IDStrategy
	lastID   int
}

// NewMemoryRepository creates an empty repository
func NewMemoryRepository(strategy IDStrategy) *MemoryRepository {
	if strategy == "" {
		strategy = StrategyCount
	}
	return &MemoryRepository{
		todos:    make([]Todo, 0),
		strategy: strategy,
	}
}

func (r *MemoryRepository) List(_ context.Context) ([]Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Todo, len(r.todos))
	copy(out, r.todos)
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id int) (Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return Todo{}, ErrNotFound
	}
	return r.todos[i], nil
}

func (r *MemoryRepository) Create(_ context.Context, in Input, createdAt string) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id int
	switch r.strategy {
	case StrategySequence:
		id = r.lastID + 1
	default:
		id = len(r.todos) + 1
	}
	if id > r.lastID {
		r.lastID = id
	}

	t := Todo{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		CreatedAt:   createdAt,
	}
	r.todos = append(r.todos, t)
	return t, nil
}

func (r *MemoryRepository) Update(_ context.Context, id int, in Input) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return Todo{}, ErrNotFound
	}
	t := &r.todos[i]
	t.Title = in.Title
	t.Description = in.Description
	t.Completed = in.Completed
	return *t, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return Todo{}, ErrNotFound
	}
	deleted := r.todos[i]
	r.todos = append(r.todos[:i], r.todos[i+1:]...)
	return deleted, nil
}

func (r *MemoryRepository) Counts(_ context.Context) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	completed := 0
	for _, t := range r.todos {
		if t.Completed {
			completed++
		}
	}
	return len(r.todos), completed, nil
}

// indexOf returns the index of the first todo with id, or -1. Callers hold the lock.
func (r *MemoryRepository) indexOf(id int) int {
	for i := range r.todos {
		if r.todos[i].ID == id {
			return i
		}
	}
	return -1
}
