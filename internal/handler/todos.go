package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourorg/todoapi/internal/security/middleware"
	"github.com/yourorg/todoapi/internal/service"
)

// TodosBasePath is the collection path todos are served under
const TodosBasePath = "/api/v1/todos"

// TodoResponse is the public wire shape of a todo
type TodoResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// todoRequest is the declared request schema for todo mutations: a single
// required name field, accepted as JSON or form-encoded body.
type todoRequest struct {
	Name string `json:"name"`
}

func decodeTodoRequest(r *http.Request) (todoRequest, error) {
	var req todoRequest

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		// An empty body is not malformed, just missing its fields; validation
		// reports those.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
		req.Name = r.PostFormValue("name")
	}

	return req, nil
}

func (req todoRequest) validate() error {
	if req.Name == "" {
		return errors.New("No name provided")
	}
	return nil
}

// TodoHandler serves the todo CRUD endpoints
type TodoHandler struct {
	todoService *service.TodoService
	logger      *slog.Logger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todoService *service.TodoService, logger *slog.Logger) *TodoHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &TodoHandler{
		todoService: todoService,
		logger:      logger,
	}
}

// List handles GET /api/v1/todos. Public: no authentication required.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.todoService.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list todos", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to list todos"})
		return
	}

	resp := make([]TodoResponse, 0, len(todos))
	for _, t := range todos {
		resp = append(resp, TodoResponse{ID: t.ID, Name: t.Name})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/v1/todos. The auth guard has already run; the
// request identity is in the context.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	req, err := decodeTodoRequest(r)
	if err != nil {
		h.logger.Warn("failed to decode create request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	todo, err := h.todoService.Create(r.Context(), user, req.Name)
	if err != nil {
		h.logger.Error("failed to create todo", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to create todo"})
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%d", TodosBasePath, todo.ID))
	writeJSON(w, http.StatusCreated, TodoResponse{ID: todo.ID, Name: todo.Name})
}

// Update handles PUT /api/v1/todos/{id}. Renaming a nonexistent id is an
// idempotent no-op and still answers 200.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid todo id"})
		return
	}

	req, err := decodeTodoRequest(r)
	if err != nil {
		h.logger.Warn("failed to decode update request", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}
	if err := req.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	todo, err := h.todoService.Rename(r.Context(), user, id, req.Name)
	if err != nil {
		h.logger.Error("failed to update todo",
			slog.Int64("todo_id", id),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to update todo"})
		return
	}

	writeJSON(w, http.StatusOK, TodoResponse{ID: todo.ID, Name: todo.Name})
}

// Delete handles DELETE /api/v1/todos/{id}. Deleting a nonexistent id is the
// same 204.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid todo id"})
		return
	}

	if err := h.todoService.Delete(r.Context(), user, id); err != nil {
		h.logger.Error("failed to delete todo",
			slog.Int64("todo_id", id),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to delete todo"})
		return
	}

	w.Header().Set("Location", TodosBasePath)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
