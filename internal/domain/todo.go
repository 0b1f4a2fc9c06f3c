package domain

import (
	"context"
	"time"
)

// Todo represents a named task record. Todos are a shared collection:
// there is no owning-user reference, any authenticated user may mutate any todo.
type Todo struct {
	ID        int64
	Name      string
	CreatedAt time.Time // date the record was created, assigned by the database
}

// TodoRepository defines data access for todos
type TodoRepository interface {
	// List returns all todos ordered by id.
	List(ctx context.Context) ([]*Todo, error)
	GetByID(ctx context.Context, id int64) (*Todo, error)
	Create(ctx context.Context, todo *Todo) error
	// UpdateName renames the todo with the given id and reports the number of
	// rows affected. Zero rows is not an error.
	UpdateName(ctx context.Context, id int64, name string) (int64, error)
	// Delete removes the todo with the given id and reports the number of rows
	// affected. Zero rows is not an error.
	Delete(ctx context.Context, id int64) (int64, error)
}
