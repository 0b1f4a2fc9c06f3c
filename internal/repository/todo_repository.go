package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/todoapi/internal/domain"
)

// PostgresTodoRepository implements domain.TodoRepository using PostgreSQL
type PostgresTodoRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTodoRepository creates a new todo repository
func NewPostgresTodoRepository(db *sql.DB, logger *slog.Logger) *PostgresTodoRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTodoRepository{
		db:     db,
		logger: logger,
	}
}

// List returns all todos ordered by id
func (r *PostgresTodoRepository) List(ctx context.Context) ([]*domain.Todo, error) {
	query := `
		SELECT id, name, created_at
		FROM todos
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list todos", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []*domain.Todo
	for rows.Next() {
		todo := &domain.Todo{}
		if err := rows.Scan(&todo.ID, &todo.Name, &todo.CreatedAt); err != nil {
			r.logger.Error("failed to scan todo row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}

	return todos, rows.Err()
}

// GetByID retrieves a todo by id
func (r *PostgresTodoRepository) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	todo := &domain.Todo{}

	query := `
		SELECT id, name, created_at
		FROM todos
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(&todo.ID, &todo.Name, &todo.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return todo, nil
}

// Create inserts a todo. The id and creation date are assigned by the database.
func (r *PostgresTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	query := `
		INSERT INTO todos (name)
		VALUES ($1)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, todo.Name).Scan(&todo.ID, &todo.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create todo",
			slog.String("name", todo.Name),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create todo: %w", err)
	}

	return nil
}

// UpdateName renames the todo with the given id. Zero rows affected is not an
// error; the caller decides what a no-op means.
func (r *PostgresTodoRepository) UpdateName(ctx context.Context, id int64, name string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE todos SET name = $1 WHERE id = $2`, name, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update todo: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows, nil
}

// Delete removes the todo with the given id. Zero rows affected is not an error.
func (r *PostgresTodoRepository) Delete(ctx context.Context, id int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete todo: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows, nil
}
