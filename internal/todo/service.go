package todo

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/fluxorio/todo-service/pkg/core"
	"github.com/fluxorio/todo-service/pkg/core/failfast"
	"github.com/fluxorio/todo-service/pkg/events"
	"github.com/fluxorio/todo-service/pkg/observability/prometheus"
)

// Event types published by the service
const (
	EventCreated = "todo.created"
	EventUpdated = "todo.updated"
	EventDeleted = "todo.deleted"
)

// Service implements the todo operations on top of a Repository.
// Mutations publish an event; a failed publish is logged and does not fail the request.
type Service struct {
	repo      Repository
	publisher events.Publisher
	metrics   *prometheus.Metrics
	logger    core.Logger
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithPublisher sets the event publisher
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records operation outcomes and collection gauges
func WithMetrics(m *prometheus.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l core.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the creation timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a todo service
func NewService(repo Repository, opts ...Option) *Service {
	failfast.NotNil(repo, "repo")

	s := &Service{
		repo:      repo,
		publisher: events.Noop{},
		logger:    core.NewNopLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all todos in insertion order, never nil
func (s *Service) List(ctx context.Context) ([]Todo, error) {
	todos, err := s.repo.List(ctx)
	s.record("list", err)
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []Todo{}
	}
	return todos, nil
}

// Get returns the first todo with id
func (s *Service) Get(ctx context.Context, id int) (Todo, error) {
	t, err := s.repo.Get(ctx, id)
	s.record("get", err)
	return t, err
}

// Create stores a new todo with a server-assigned id and created_at
func (s *Service) Create(ctx context.Context, in Input) (Todo, error) {
	createdAt := s.now().Format(time.RFC3339Nano)
	t, err := s.repo.Create(ctx, in, createdAt)
	s.record("create", err)
	if err != nil {
		return Todo{}, err
	}
	s.publish(ctx, EventCreated, t)
	return t, nil
}

// Update replaces the fields of the todo with id. id and created_at are kept.
func (s *Service) Update(ctx context.Context, id int, in Input) (Todo, error) {
	t, err := s.repo.Update(ctx, id, in)
	s.record("update", err)
	if err != nil {
		return Todo{}, err
	}
	s.publish(ctx, EventUpdated, t)
	return t, nil
}

// Delete removes the todo with id
func (s *Service) Delete(ctx context.Context, id int) (DeleteResult, error) {
	t, err := s.repo.Delete(ctx, id)
	s.record("delete", err)
	if err != nil {
		return DeleteResult{}, err
	}
	s.publish(ctx, EventDeleted, t)
	return DeleteResult{Message: deletedMessage, Deleted: t}, nil
}

// Stats returns collection totals. completion_rate is a percentage rounded
// to two decimals, 0 for an empty collection.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, completed, err := s.repo.Counts(ctx)
	s.record("stats", err)
	if err != nil {
		return Stats{}, err
	}
	if s.metrics != nil {
		s.metrics.SetTodoCounts(total, completed)
	}
	return computeStats(total, completed), nil
}

func computeStats(total, completed int) Stats {
	stats := Stats{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
	}
	if total > 0 {
		stats.CompletionRate = math.Round(float64(completed)/float64(total)*100*100) / 100
	}
	return stats
}

func (s *Service) publish(ctx context.Context, eventType string, t Todo) {
	err := s.publisher.Publish(ctx, events.NewEvent(ctx, eventType, t))
	if s.metrics != nil {
		s.metrics.RecordEventPublished(eventType, err)
	}
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"event":      eventType,
			"todo_id":    t.ID,
			"request_id": core.GetRequestID(ctx),
		}).Warnf("failed to publish event: %v", err)
	}
}

func (s *Service) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	default:
		result = "error"
	}
	s.metrics.RecordTodoOperation(operation, result)
}
