package handlers

import (
	"errors"
	"net/http"

	"assetd/internal/store"
)

type loginPageData struct {
	User     any // always nil on the login page; keeps the nav template happy
	Title    string
	Username string
	Error    string
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if _, err := h.store.SessionUser(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, "", "Malformed form submission.")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	user, err := h.store.Authenticate(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			h.renderLogin(w, r, http.StatusUnprocessableEntity, username, "Wrong username or password.")
			return
		}
		h.internalError(w, r, err)
		return
	}

	session, err := h.store.CreateSession(r.Context(), user, h.opts.SessionTTL)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := h.store.RevokeSession(r.Context(), cookie.Value); err != nil {
			h.internalError(w, r, err)
			return
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, username, message string) {
	data := loginPageData{Title: "Log in", Username: username, Error: message}
	if err := h.renderer.Render(w, status, "login.tmpl", data); err != nil {
		h.internalError(w, r, err)
	}
}
