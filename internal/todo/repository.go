package todo

import (
	"context"
	"fmt"
)

// IDStrategy decides how create assigns ids
type IDStrategy string

const (
	// StrategyCount assigns len(collection)+1. After a delete this can
	// reissue an id that is still live.
	StrategyCount IDStrategy = "count"

	// StrategySequence assigns one more than the largest id ever assigned
	StrategySequence IDStrategy = "sequence"
)

// ParseIDStrategy parses a configured strategy name. Empty means count.
func ParseIDStrategy(s string) (IDStrategy, error) {
	switch IDStrategy(s) {
	case "", StrategyCount:
		return StrategyCount, nil
	case StrategySequence:
		return StrategySequence, nil
	default:
		return "", fmt.Errorf("unknown id strategy: %q", s)
	}
}

// Repository stores the ordered todo collection.
// Lookups by id act on the first todo in insertion order with that id.
type Repository interface {
	// List returns every todo in insertion order
	List(ctx context.Context) ([]Todo, error)

	Get(ctx context.Context, id int) (Todo, error)

	// Create assigns the id, appends the todo and returns the stored copy
	Create(ctx context.Context, in Input, createdAt string) (Todo, error)

	// Update replaces title, description and completed. id and created_at are kept.
	Update(ctx context.Context, id int, in Input) (Todo, error)

	// Delete removes the todo and returns it
	Delete(ctx context.Context, id int) (Todo, error)

	// Counts returns the number of todos and how many are completed
	Counts(ctx context.Context) (total, completed int, err error)
}
