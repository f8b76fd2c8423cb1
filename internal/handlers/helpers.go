package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"assetd/internal/models"
	"assetd/internal/store"
)

type errorPageData struct {
	User   *models.User
	Title  string
	Detail string
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	var userPtr *models.User
	if user, ok := userFrom(r.Context()); ok {
		userPtr = &user
	}
	data := errorPageData{User: userPtr, Title: title, Detail: detail}
	if err := h.renderer.Render(w, status, "error.tmpl", data); err != nil {
		log.Error().Err(err).Msg("render error page")
		http.Error(w, detail, status)
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Not found", "No such asset.")
}

func (h *Handler) forbidden(w http.ResponseWriter, r *http.Request, reason string) {
	h.renderError(w, r, http.StatusForbidden, "Forbidden", "You are not allowed to do this: "+reason+".")
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().Err(err).Str("path", r.URL.Path).Msg("handler failure")
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong", "Please try again.")
}

// storeError maps store failures that are not validation problems to the
// appropriate response.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	h.internalError(w, r, err)
}

// assetID parses the {id} route parameter. A malformed id is treated the
// same as an unknown one.
func assetID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
