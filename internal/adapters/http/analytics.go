package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sp3dr4/shortlink/internal/application"
)

// HandleClickEvents lists recorded click events for a short URL.
//
//	@Summary		List click events
//	@Description	Durably recorded click events, newest first
//	@Tags			analytics
//	@Produce		json
//	@Security		BearerAuth
//	@Param			shortCode	path		string	true	"Short code"
//	@Param			skip		query		int		false	"Events to skip"	default(0)
//	@Param			limit		query		int		false	"Page size"			default(100)
//	@Success		200			{array}		domain.ClickEvent
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/v1/analytics/{shortCode}/clicks [get]
func (h *Handlers) HandleClickEvents(w http.ResponseWriter, r *http.Request) {
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

	events, err := h.analytics.ClickEvents(r.Context(), ownerID, chi.URLParam(r, "shortCode"),
		application.ClickEventsQuery{Skip: skip, Limit: limit})
	if err != nil {
		respondWithServiceError(w, r, err, "list click events")
		return
	}

	respondWithJSON(w, r, http.StatusOK, events)
}

// HandleClickSummary reports click totals for a short URL.
//
//	@Summary		Click summary
//	@Description	Reconciled click total and distinct source IPs over the last N days
//	@Tags			analytics
//	@Produce		json
//	@Security		BearerAuth
//	@Param			shortCode	path		string	true	"Short code"
//	@Param			days		query		int		false	"Window in days (1-365)"	default(30)
//	@Success		200			{object}	application.ClickSummary
//	@Failure		400			{object}	ValidationErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Router			/api/v1/analytics/{shortCode}/summary [get]
func (h *Handlers) HandleClickSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	days, err := queryInt(r, "days", 30)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.analytics.Summary(r.Context(), ownerID, chi.URLParam(r, "shortCode"),
		application.SummaryQuery{Days: days})
	if err != nil {
		respondWithServiceError(w, r, err, "summarize clicks")
		return
	}

	respondWithJSON(w, r, http.StatusOK, summary)
}

// HandleTopURLs ranks the caller's short URLs by clicks.
//
//	@Summary		Top short URLs
//	@Tags			analytics
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query		int	false	"Number of URLs (1-50)"	default(10)
//	@Success		200		{array}		application.TopURL
//	@Failure		400		{object}	ValidationErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/api/v1/analytics/top [get]
func (h *Handlers) HandleTopURLs(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromContext(r.Context())

	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	top, err := h.analytics.Top(r.Context(), ownerID, application.TopQuery{Limit: limit})
	if err != nil {
		respondWithServiceError(w, r, err, "rank short URLs")
		return
	}

	respondWithJSON(w, r, http.StatusOK, top)
}
