package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/yourorg/todoapi/internal/domain"
	"github.com/yourorg/todoapi/internal/infrastructure/logger"
	"github.com/yourorg/todoapi/internal/security/audit"
	"github.com/yourorg/todoapi/internal/security/auth"
	"github.com/yourorg/todoapi/internal/security/middleware"
	"github.com/yourorg/todoapi/internal/service"
)

type memUserRepo struct {
	nextID int64
	byID   map[int64]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, byID: map[int64]*domain.User{}}
}

func (m *memUserRepo) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Username, u.Username) {
			return domain.ErrDuplicateUser
		}
	}
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	m.byID[u.ID] = u
	return nil
}

func (m *memUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memTodoRepo struct {
	nextID int64
	todos  []*domain.Todo
}

func newMemTodoRepo() *memTodoRepo {
	return &memTodoRepo{nextID: 1}
}

func (m *memTodoRepo) List(ctx context.Context) ([]*domain.Todo, error) {
	out := make([]*domain.Todo, len(m.todos))
	copy(out, m.todos)
	return out, nil
}

func (m *memTodoRepo) GetByID(ctx context.Context, id int64) (*domain.Todo, error) {
	for _, t := range m.todos {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTodoRepo) Create(ctx context.Context, todo *domain.Todo) error {
	todo.ID = m.nextID
	m.nextID++
	todo.CreatedAt = time.Now()
	m.todos = append(m.todos, todo)
	return nil
}

func (m *memTodoRepo) UpdateName(ctx context.Context, id int64, name string) (int64, error) {
	for _, t := range m.todos {
		if t.ID == id {
			t.Name = name
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memTodoRepo) Delete(ctx context.Context, id int64) (int64, error) {
	for i, t := range m.todos {
		if t.ID == id {
			m.todos = append(m.todos[:i], m.todos[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// newTestServer wires the full API surface against in-memory repositories and
// registers one user, username/password.
func newTestServer(t *testing.T) (*httptest.Server, *memTodoRepo) {
	t.Helper()

	log := logger.NewLogger("error")
	users := newMemUserRepo()
	todos := newMemTodoRepo()

	hasher := auth.NewPasswordHasher(auth.HashParams{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	tokens := auth.NewTokenManager("test-secret", "todoapi")
	auditLogger := audit.NewLogger(log)
	authService := service.NewAuthService(users, hasher, tokens, time.Hour, log)
	todoService := service.NewTodoService(todos, auditLogger, log)

	if _, err := authService.CreateUser(context.Background(), "username", "password"); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	guard := middleware.AuthGuard(authService, auditLogger, log)
	todoHandler := NewTodoHandler(todoService, log)
	tokenHandler := NewTokenHandler(authService, nil, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/todos", todoHandler.List)
	mux.Handle("POST /api/v1/todos", guard(http.HandlerFunc(todoHandler.Create)))
	mux.Handle("PUT /api/v1/todos/{id}", guard(http.HandlerFunc(todoHandler.Update)))
	mux.Handle("DELETE /api/v1/todos/{id}", guard(http.HandlerFunc(todoHandler.Delete)))
	mux.Handle("GET /api/v1/users/token", guard(tokenHandler))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, todos
}

func doJSON(t *testing.T, method, url string, body any, authUser, authPass string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authUser != "" {
		req.SetBasicAuth(authUser, authPass)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeTodo(t *testing.T, resp *http.Response) TodoResponse {
	t.Helper()
	defer resp.Body.Close()

	var todo TodoResponse
	if err := json.NewDecoder(resp.Body).Decode(&todo); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return todo
}

func TestListTodos(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, "GET", server.URL+"/api/v1/todos", nil, "", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var list []TodoResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d items", len(list))
	}

	created := doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{"name": "sport"}, "username", "password")
	if created.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", created.StatusCode)
	}
	created.Body.Close()

	resp = doJSON(t, "GET", server.URL+"/api/v1/todos", nil, "", "")
	defer resp.Body.Close()
	list = nil
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one todo, got %d", len(list))
	}
	if list[0].ID != 1 || list[0].Name != "sport" {
		t.Fatalf("unexpected todo %+v", list[0])
	}
}

func TestCreateTodo(t *testing.T) {
	server, todos := newTestServer(t)

	// No credentials: 401 and nothing stored.
	resp := doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{"name": "sport"}, "", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if len(todos.todos) != 0 {
		t.Fatalf("expected no todos after rejected create")
	}

	// Bad password: still 401.
	resp = doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{"name": "sport"}, "username", "wrong")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{"name": "sport"}, "username", "password")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/v1/todos/1" {
		t.Fatalf("expected Location /api/v1/todos/1, got %q", loc)
	}
	todo := decodeTodo(t, resp)
	if todo.ID != 1 || todo.Name != "sport" {
		t.Fatalf("unexpected todo %+v", todo)
	}
}

func TestCreateTodoValidation(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{}, "username", "password")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response failed: %v", err)
	}
	if errResp.Error != "No name provided" {
		t.Fatalf("expected %q, got %q", "No name provided", errResp.Error)
	}
}

func TestCreateTodoFormEncoded(t *testing.T) {
	server, _ := newTestServer(t)

	form := url.Values{"name": {"sport"}}
	req, err := http.NewRequest("POST", server.URL+"/api/v1/todos", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("username", "password")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for form body, got %d", resp.StatusCode)
	}
	todo := decodeTodo(t, resp)
	if todo.Name != "sport" {
		t.Fatalf("unexpected todo %+v", todo)
	}
}

func TestUpdateTodo(t *testing.T) {
	server, todos := newTestServer(t)

	resp := doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{"name": "sport"}, "username", "password")
	resp.Body.Close()

	// No credentials: 401 and the name stays.
	resp = doJSON(t, "PUT", server.URL+"/api/v1/todos/1", map[string]string{"name": "work"}, "", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if todos.todos[0].Name != "sport" {
		t.Fatalf("expected name unchanged after rejected update, got %q", todos.todos[0].Name)
	}

	resp = doJSON(t, "PUT", server.URL+"/api/v1/todos/1", map[string]string{"name": "work"}, "username", "password")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	todo := decodeTodo(t, resp)
	if todo.ID != 1 || todo.Name != "work" {
		t.Fatalf("unexpected todo %+v", todo)
	}
}

func TestUpdateNonexistentTodoIsNoOp(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, "PUT", server.URL+"/api/v1/todos/99", map[string]string{"name": "work"}, "username", "password")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for nonexistent id, got %d", resp.StatusCode)
	}
	todo := decodeTodo(t, resp)
	if todo.ID != 99 || todo.Name != "work" {
		t.Fatalf("unexpected todo %+v", todo)
	}
}

func TestDeleteTodo(t *testing.T) {
	server, todos := newTestServer(t)

	resp := doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{"name": "sport"}, "username", "password")
	resp.Body.Close()

	resp = doJSON(t, "DELETE", server.URL+"/api/v1/todos/1", nil, "", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "DELETE", server.URL+"/api/v1/todos/1", nil, "username", "password")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/v1/todos" {
		t.Fatalf("expected Location /api/v1/todos, got %q", loc)
	}
	if len(todos.todos) != 0 {
		t.Fatalf("expected zero todos after delete")
	}

	// Deleting again is the same success.
	resp = doJSON(t, "DELETE", server.URL+"/api/v1/todos/1", nil, "username", "password")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 for repeated delete, got %d", resp.StatusCode)
	}
}

func TestTokenEndpointAndTokenAuth(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, "GET", server.URL+"/api/v1/users/token", nil, "", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", resp.StatusCode)
	}

	resp = doJSON(t, "GET", server.URL+"/api/v1/users/token", nil, "username", "password")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		t.Fatalf("decode token response failed: %v", err)
	}
	resp.Body.Close()
	if tokenResp.Token == "" {
		t.Fatalf("expected a token")
	}

	// The token rides in the Basic username slot; the password slot is ignored.
	resp = doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{"name": "sport"}, tokenResp.Token, "unused")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 with token auth, got %d", resp.StatusCode)
	}
	todo := decodeTodo(t, resp)
	if todo.Name != "sport" {
		t.Fatalf("unexpected todo %+v", todo)
	}

	// A mangled token with no password fallback stays out.
	resp = doJSON(t, "POST", server.URL+"/api/v1/todos", map[string]string{"name": "sport"}, tokenResp.Token+"x", "unused")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for mangled token, got %d", resp.StatusCode)
	}
}
