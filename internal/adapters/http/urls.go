package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sp3dr4/shortlink/internal/application"
	"github.com/sp3dr4/shortlink/internal/pkg/logging"
)

// HandleCreateURL handles the URL shortening endpoint.
//
//	@Summary		Create a short URL
//	@Description	Create a shortened URL owned by the caller, optionally with a custom code
//	@Tags			urls
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		application.CreateURLRequest	true	"URL to shorten"
//	@Success		201		{object}	application.URLResponse			"Successfully created short URL"
//	@Failure		400		{object}	ValidationErrorResponse			"Invalid request or validation error"
//	@Failure		401		{object}	ErrorResponse					"Missing or invalid token"
//	@Failure		409		{object}	ErrorResponse					"Short code already exists"
//	@Router			/api/v1/urls [post]
func (h *Handlers) HandleCreateURL(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	var req application.CreateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.FromContext(r.Context()).Warn("Failed to decode request", "error", err)
		respondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.urls.CreateShortURL(r.Context(), ownerID, req)
	if err != nil {
		respondWithServiceError(w, r, err, "create short URL")
		return
	}

	respondWithJSON(w, r, http.StatusCreated, response)
}

// HandleListURLs lists the caller's short URLs.
//
//	@Summary		List short URLs
//	@Description	List the caller's short URLs newest first with reconciled click counts
//	@Tags			urls
//	@Produce		json
//	@Security		BearerAuth
//	@Param			skip	query		int						false	"Records to skip"	default(0)
//	@Param			limit	query		int						false	"Page size (1-100)"	default(100)
//	@Success		200		{array}		application.URLResponse
//	@Failure		400		{object}	ValidationErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/api/v1/urls [get]
func (h *Handlers) HandleListURLs(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	urls, err := h.urls.ListURLs(r.Context(), ownerID, application.ListURLsQuery{Skip: skip, Limit: limit})
	if err != nil {
		respondWithServiceError(w, r, err, "list short URLs")
		return
	}

	respondWithJSON(w, r, http.StatusOK, urls)
}

// HandleGetURL returns one of the caller's short URLs.
//
//	@Summary		Get a short URL
//	@Tags			urls
//	@Produce		json
//	@Security		BearerAuth
//	@Param			shortCode	path		string	true	"Short code"
//	@Success		200			{object}	application.URLResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/v1/urls/{shortCode} [get]
func (h *Handlers) HandleGetURL(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	url, err := h.urls.GetURL(r.Context(), ownerID, chi.URLParam(r, "shortCode"))
	if err != nil {
		respondWithServiceError(w, r, err, "get short URL")
		return
	}

	respondWithJSON(w, r, http.StatusOK, url)
}

// HandleUpdateURL updates the title or active flag of a short URL.
//
//	@Summary		Update a short URL
//	@Description	Deactivating a URL stops redirects immediately
//	@Tags			urls
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			shortCode	path		string							true	"Short code"
//	@Param			request		body		application.UpdateURLRequest	true	"Fields to change"
//	@Success		200			{object}	application.URLResponse
//	@Failure		400			{object}	ValidationErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/v1/urls/{shortCode} [patch]
func (h *Handlers) HandleUpdateURL(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	var req application.UpdateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	url, err := h.urls.UpdateURL(r.Context(), ownerID, chi.URLParam(r, "shortCode"), req)
	if err != nil {
		respondWithServiceError(w, r, err, "update short URL")
		return
	}

	respondWithJSON(w, r, http.StatusOK, url)
}

// HandleDeleteURL deletes a short URL and its click history.
//
//	@Summary		Delete a short URL
//	@Tags			urls
//	@Security		BearerAuth
//	@Param			shortCode	path	string	true	"Short code"
//	@Success		204			"Deleted"
//	@Failure		401			{object}	ErrorResponse
//	@Failure		403			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/v1/urls/{shortCode} [delete]
func (h *Handlers) HandleDeleteURL(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	if err := h.urls.DeleteURL(r.Context(), ownerID, chi.URLParam(r, "shortCode")); err != nil {
		respondWithServiceError(w, r, err, "delete short URL")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
