package audit

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Logger writes structured audit entries for todo mutations and denied access
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID int64, action, resource, resourceID, status string) {
	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.Int64("user_id", userID),
		slog.String("status", status),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogTodoCreated(ctx context.Context, userID, todoID int64) {
	al.LogAction(ctx, userID, "create", "todo", strconv.FormatInt(todoID, 10), "ok")
}

func (al *Logger) LogTodoRenamed(ctx context.Context, userID, todoID int64) {
	al.LogAction(ctx, userID, "rename", "todo", strconv.FormatInt(todoID, 10), "ok")
}

func (al *Logger) LogTodoDeleted(ctx context.Context, userID, todoID int64) {
	al.LogAction(ctx, userID, "delete", "todo", strconv.FormatInt(todoID, 10), "ok")
}

func (al *Logger) LogDenied(ctx context.Context, remoteAddr, reason string) {
	al.logger.Info("audit",
		slog.String("action", "access_denied"),
		slog.String("resource", "api"),
		slog.String("remote_addr", remoteAddr),
		slog.String("status", "denied"),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now()),
	)
}
