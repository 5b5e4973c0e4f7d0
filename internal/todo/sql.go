package todo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/fluxorio/todo-service/pkg/db"
)

const todoColumns = "id, title, description, completed, created_at"

// SQLRepository stores todos in a SQL database. Rows are ordered by the
// auto-incrementing seq column; id is not unique so the count strategy's
// reissued ids can be stored as-is.
type SQLRepository struct {
	pool     *db.Pool
	strategy IDStrategy

	// serializes id assignment within this process
	createMu sync.Mutex
}

// NewSQLRepository creates the repository and runs its migrations
func NewSQLRepository(ctx context.Context, pool *db.Pool, strategy IDStrategy) (*SQLRepository, error) {
	if strategy == "" {
		strategy = StrategyCount
	}
	r := &SQLRepository{pool: pool, strategy: strategy}
	if err := r.migrate(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS todos (
			seq %s,
			id INTEGER NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TEXT NOT NULL
		)`, r.pool.Dialect().AutoIncrement),
		`CREATE INDEX IF NOT EXISTS todos_id_idx ON todos (id)`,
	}
	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate todos table: %w", err)
		}
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) ([]Todo, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+todoColumns+" FROM todos ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]Todo, 0)
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func (r *SQLRepository) Get(ctx context.Context, id int) (Todo, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id = ? ORDER BY seq LIMIT 1", id)
	return scanTodo(row, "get")
}

func (r *SQLRepository) Create(ctx context.Context, in Input, createdAt string) (Todo, error) {
	r.createMu.Lock()
	defer r.createMu.Unlock()

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return Todo{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	dialect := r.pool.Dialect()
	if dialect == db.Postgres {
		// other processes may share the table
		if _, err := tx.ExecContext(ctx, "LOCK TABLE todos IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return Todo{}, fmt.Errorf("failed to lock todos table: %w", err)
		}
	}

	t := Todo{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		CreatedAt:   createdAt,
	}

	switch r.strategy {
	case StrategySequence:
		// seq never reuses values, so it doubles as the id sequence
		var seq int64
		err := tx.QueryRowContext(ctx, dialect.Rebind(
			"INSERT INTO todos ("+todoColumns+") VALUES (0, ?, ?, ?, ?) RETURNING seq"),
			t.Title, t.Description, t.Completed, t.CreatedAt,
		).Scan(&seq)
		if err != nil {
			return Todo{}, fmt.Errorf("failed to create todo: %w", err)
		}
		if _, err := tx.ExecContext(ctx, dialect.Rebind("UPDATE todos SET id = ? WHERE seq = ?"), seq, seq); err != nil {
			return Todo{}, fmt.Errorf("failed to assign todo id: %w", err)
		}
		t.ID = int(seq)
	default:
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos").Scan(&count); err != nil {
			return Todo{}, fmt.Errorf("failed to count todos: %w", err)
		}
		t.ID = count + 1
		_, err := tx.ExecContext(ctx, dialect.Rebind(
			"INSERT INTO todos ("+todoColumns+") VALUES (?, ?, ?, ?, ?)"),
			t.ID, t.Title, t.Description, t.Completed, t.CreatedAt,
		)
		if err != nil {
			return Todo{}, fmt.Errorf("failed to create todo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Todo{}, fmt.Errorf("failed to commit todo: %w", err)
	}
	return t, nil
}

func (r *SQLRepository) Update(ctx context.Context, id int, in Input) (Todo, error) {
	row := r.pool.QueryRow(ctx, `UPDATE todos SET title = ?, description = ?, completed = ?
		WHERE seq = (SELECT MIN(seq) FROM todos WHERE id = ?)
		RETURNING `+todoColumns,
		in.Title, in.Description, in.Completed, id)
	return scanTodo(row, "update")
}

func (r *SQLRepository) Delete(ctx context.Context, id int) (Todo, error) {
	row := r.pool.QueryRow(ctx, `DELETE FROM todos
		WHERE seq = (SELECT MIN(seq) FROM todos WHERE id = ?)
		RETURNING `+todoColumns, id)
	return scanTodo(row, "delete")
}

func (r *SQLRepository) Counts(ctx context.Context) (int, int, error) {
	var total, completed int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0) FROM todos",
	).Scan(&total, &completed)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return total, completed, nil
}

func scanTodo(row *sql.Row, op string) (Todo, error) {
	var t Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, fmt.Errorf("failed to %s todo: %w", op, err)
	}
	return t, nil
}
