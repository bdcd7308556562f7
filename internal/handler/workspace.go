package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippetvault/internal/auth"
	"github.com/sakif/snippetvault/internal/service"
)

// WorkspaceHandler manages workspace CRUD and sharing.
//
// ROUTES (all behind RequireAuth):
//   - GET    /api/workspaces             → workspaces the caller can see
//   - POST   /api/workspaces             → create a workspace
//   - GET    /api/workspaces/{id}        → one workspace with owner and members
//   - PATCH  /api/workspaces/{id}        → rename (owner only)
//   - DELETE /api/workspaces/{id}        → delete with contents (owner only)
//   - POST   /api/workspaces/{id}/share  → grant a user access by email (owner only)
//   - DELETE /api/workspaces/{id}/share  → revoke a user's access (owner only)
type WorkspaceHandler struct {
	svc    *service.WorkspaceService
	logger *slog.Logger
}

// NewWorkspaceHandler creates a WorkspaceHandler.
func NewWorkspaceHandler(svc *service.WorkspaceService, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{svc: svc, logger: logger}
}

type createWorkspaceRequest struct {
	Name string `json:"name" validate:"required"`
}

type renameWorkspaceRequest struct {
	Name string `json:"name" validate:"required"`
}

type shareWorkspaceRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleList returns every workspace the caller owns or was shared into.
//
// HTTP: GET /api/workspaces
func (h *WorkspaceHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	workspaces, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workspaces)
}

// HandleGet returns a single workspace with its owner and shared users.
//
// HTTP: GET /api/workspaces/{id}
// 404 for non-members, whether or not the id exists.
func (h *WorkspaceHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	ws, err := h.svc.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

// HandleCreate creates a workspace owned by the caller.
//
// HTTP: POST /api/workspaces
// Body: {"name": "Side Projects"}
func (h *WorkspaceHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createWorkspaceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ws, err := h.svc.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ws)
}

// HandleRename renames a workspace. Owner only.
//
// HTTP: PATCH /api/workspaces/{id}
func (h *WorkspaceHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req renameWorkspaceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ws, err := h.svc.Rename(r.Context(), r.PathValue("id"), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

// HandleDelete deletes a workspace and all its collections and snippets.
// Owner only.
//
// HTTP: DELETE /api/workspaces/{id}
func (h *WorkspaceHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleShare grants the user registered under the given email access to
// the workspace. Owner only, idempotent.
//
// HTTP: POST /api/workspaces/{id}/share
// Body: {"email": "friend@example.com"}
// 404 if no account exists for that email.
func (h *WorkspaceHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req shareWorkspaceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ws, err := h.svc.Share(r.Context(), r.PathValue("id"), userID, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

// HandleUnshare revokes a collaborator's access. Owner only.
//
// HTTP: DELETE /api/workspaces/{id}/share
// Body: {"email": "friend@example.com"}
func (h *WorkspaceHandler) HandleUnshare(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req shareWorkspaceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ws, err := h.svc.Unshare(r.Context(), r.PathValue("id"), userID, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ws)
}
