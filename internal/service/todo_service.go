package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/yourorg/todoapi/internal/domain"
	"github.com/yourorg/todoapi/internal/observability/metrics"
	"github.com/yourorg/todoapi/internal/security/audit"
)

// TodoService sits between the HTTP handlers and the todo repository and
// carries logging, metrics, and audit for mutations.
type TodoService struct {
	todos  domain.TodoRepository
	audit  *audit.Logger
	logger *slog.Logger
}

// NewTodoService creates a new todo service
func NewTodoService(todos domain.TodoRepository, auditLog *audit.Logger, logger *slog.Logger) *TodoService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TodoService{
		todos:  todos,
		audit:  auditLog,
		logger: logger,
	}
}

// List returns all todos. Never fails with an empty collection; an empty
// result is a valid answer.
func (s *TodoService) List(ctx context.Context) ([]*domain.Todo, error) {
	return s.todos.List(ctx)
}

// Create persists a new todo with today's date
func (s *TodoService) Create(ctx context.Context, user *domain.User, name string) (*domain.Todo, error) {
	todo := &domain.Todo{Name: name}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}

	metrics.ObserveTodoOperation("create")
	if s.audit != nil {
		s.audit.LogTodoCreated(ctx, user.ID, todo.ID)
	}
	s.logger.Info("todo created",
		slog.Int64("todo_id", todo.ID),
		slog.Int64("user_id", user.ID),
	)

	return todo, nil
}

// Rename updates the name of the todo with the given id. Renaming a
// nonexistent id is an idempotent no-op: the returned todo echoes the
// requested id and name.
func (s *TodoService) Rename(ctx context.Context, user *domain.User, id int64, name string) (*domain.Todo, error) {
	rows, err := s.todos.UpdateName(ctx, id, name)
	if err != nil {
		return nil, err
	}

	metrics.ObserveTodoOperation("rename")
	if s.audit != nil {
		s.audit.LogTodoRenamed(ctx, user.ID, id)
	}

	if rows == 0 {
		s.logger.Info("rename of nonexistent todo treated as no-op",
			slog.Int64("todo_id", id),
			slog.Int64("user_id", user.ID),
		)
		return &domain.Todo{ID: id, Name: name}, nil
	}

	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		// Row vanished between the update and the read; report the shape the
		// caller already knows rather than failing the request.
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Todo{ID: id, Name: name}, nil
		}
		return nil, err
	}

	return todo, nil
}

// Delete removes the todo with the given id. Deleting a nonexistent id is the
// same success.
func (s *TodoService) Delete(ctx context.Context, user *domain.User, id int64) error {
	rows, err := s.todos.Delete(ctx, id)
	if err != nil {
		return err
	}

	metrics.ObserveTodoOperation("delete")
	if s.audit != nil {
		s.audit.LogTodoDeleted(ctx, user.ID, id)
	}
	if rows == 0 {
		s.logger.Info("delete of nonexistent todo treated as no-op",
			slog.Int64("todo_id", id),
			slog.Int64("user_id", user.ID),
		)
	}

	return nil
}
