package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/invkeeper/internal/server/models"
)

type updateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

func (h *handler) listUsers(w http.ResponseWriter, r *http.Request) {
	h.writeUsers(w, r, h.users.List)
}

func (h *handler) listAdmins(w http.ResponseWriter, r *http.Request) {
	h.writeUsers(w, r, h.users.ListAdmins)
}

func (h *handler) listRegular(w http.ResponseWriter, r *http.Request) {
	h.writeUsers(w, r, h.users.ListRegular)
}

func (h *handler) writeUsers(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]*models.User, error)) {
	users, err := list(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	u, err := h.users.Update(r.Context(), id, req.Username, req.Email, req.IsAdmin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info(r.Context(), "user updated", "user_id", id, "is_admin", u.IsAdmin, "by", sessionFrom(r.Context()).Username)
	writeJSON(w, http.StatusOK, u)
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if err := h.users.ChangePassword(r.Context(), id, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Contraseña actualizada"})
}

func (h *handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info(r.Context(), "user deleted", "user_id", id, "by", sessionFrom(r.Context()).Username)
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Usuario eliminado"})
}
