package middleware

import (
	"context"
	"net/http"

	"github.com/harystyleseze/privexbot-kb/internal/api"
)

type contextKey string

const WorkspaceIDKey contextKey = "workspace_id"

// RequireWorkspace rejects requests without an X-Workspace-ID header and puts
// the workspace ID on the request context. Every document route is scoped to
// a workspace; cross-workspace reads are not a thing.
func RequireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workspaceID := r.Header.Get("X-Workspace-ID")
		if workspaceID == "" {
			api.Error(w, http.StatusBadRequest, "missing X-Workspace-ID header")
			return
		}

		ctx := context.WithValue(r.Context(), WorkspaceIDKey, workspaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetWorkspaceID returns the workspace ID from context.
func GetWorkspaceID(ctx context.Context) string {
	workspaceID, _ := ctx.Value(WorkspaceIDKey).(string)
	return workspaceID
}
