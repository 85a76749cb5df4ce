package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/invkeeper/internal/common"
	"github.com/dmitrijs2005/invkeeper/internal/server/metrics"
)

const (
	redirectAdmin     = "/admin"
	redirectInventory = "/inventario"
	redirectLogin     = "/login"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	RedirectURL string `json:"redirect_url"`
	Username    string `json:"username"`
	IsAdmin     bool   `json:"is_admin"`
}

type meResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// register creates a user. is_admin=true is accepted only from a caller whose
// token cookie belongs to a live admin session.
func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if req.IsAdmin {
		if _, err := h.auth.AuthorizeAdmin(r.Context(), tokenFromRequest(r)); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.IsAdmin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info(r.Context(), "user registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusOK, user)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			h.metrics.LoginAttempt(metrics.LoginInvalid)
		case errors.Is(err, common.ErrTooManyAttempts):
			h.metrics.LoginAttempt(metrics.LoginThrottled)
			h.logger.Warn(r.Context(), "login throttled", "username", req.Username)
		default:
			h.metrics.LoginAttempt(metrics.LoginError)
		}
		h.writeError(w, r, err)
		return
	}
	h.metrics.LoginAttempt(metrics.LoginSuccess)

	h.setSessionCookie(w, res.Token)

	redirect := redirectInventory
	if res.IsAdmin {
		redirect = redirectAdmin
	}
	writeJSON(w, http.StatusOK, loginResponse{RedirectURL: redirect, Username: res.Username, IsAdmin: res.IsAdmin})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), tokenFromRequest(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"redirect_url": redirectLogin})
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	sess, err := h.auth.CurrentUser(r.Context(), tokenFromRequest(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{UserID: sess.UserID, Username: sess.Username, IsAdmin: sess.IsAdmin})
}
