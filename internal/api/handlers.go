package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/casefile/internal/apperr"
	"github.com/starford/casefile/internal/caseservice"
	"github.com/starford/casefile/internal/datefmt"
	"github.com/starford/casefile/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *caseservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *caseservice.Service) *Handler {
	return &Handler{svc: svc}
}

// caseRef builds the case reference from the {date} and {serial} URL
// parameters. Encoded values are decoded before validation.
func caseRef(r *http.Request) (models.CaseRef, error) {
	date := unescape(chi.URLParam(r, "date"))
	serial := unescape(chi.URLParam(r, "serial"))
	return models.ParseRef(date + "/" + serial)
}

func unescape(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognised is
// logged and reported as an internal error.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidRef), errors.Is(err, datefmt.ErrUnparsable):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrIncompleteCase):
		writeJSON(w, http.StatusBadRequest, errorBody("summary is required"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("case already exists"))
	case errors.Is(err, apperr.ErrSeriesExhausted):
		writeJSON(w, http.StatusConflict, errorBody("no free case serial left for that day"))
	case errors.Is(err, apperr.ErrNotLoggable):
		writeJSON(w, http.StatusConflict, errorBody("case has no notes file"))
	case errors.Is(err, apperr.ErrSearchExhausted):
		writeJSON(w, http.StatusNotFound, errorBody("no recent case"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListCases handles GET /api/cases.
//
//	@Summary		List every readable case
//	@Tags			cases
//	@Produce		json
//	@Param			sort	query		bool	false	"Sort by date bucket then serial"
//	@Success		200		{object}	CaseListResponse
//	@Security		BearerAuth
//	@Router			/cases [get]
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	sorted, _ := strconv.ParseBool(r.URL.Query().Get("sort"))
	items, err := h.svc.ListCases(r.Context(), sorted)
	if err != nil {
		writeError(w, "list cases", err)
		return
	}
	writeJSON(w, http.StatusOK, CaseListResponse{Cases: items, Total: len(items)})
}

// GetCase handles GET /api/cases/{date}/{serial}.
//
//	@Summary		Get a single case
//	@Tags			cases
//	@Produce		json
//	@Param			date	path		string	true	"Date bucket"
//	@Param			serial	path		string	true	"Serial"
//	@Success		200		{object}	CaseDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{date}/{serial} [get]
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	ref, err := caseRef(r)
	if err != nil {
		writeError(w, "get case", err)
		return
	}
	c, err := h.svc.GetCase(r.Context(), ref)
	if err != nil {
		writeError(w, "get case", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// LatestCase handles GET /api/cases/latest.
//
//	@Summary		Get the most recently opened case
//	@Tags			cases
//	@Produce		json
//	@Success		200	{object}	CaseDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/latest [get]
func (h *Handler) LatestCase(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.LatestCase(r.Context())
	if err != nil {
		writeError(w, "latest case", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCase handles POST /api/cases.
//
//	@Summary		Open a new case
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateCaseRequest	true	"Case to open"
//	@Success		201		{object}	CaseDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases [post]
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	c, err := h.svc.CreateCase(r.Context(), req.Summary, req.Date)
	if err != nil {
		writeError(w, "create case", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// LogCase handles POST /api/cases/{date}/{serial}/log.
//
//	@Summary		Append a time-stamped note to a case
//	@Tags			cases
//	@Accept			json
//	@Produce		json
//	@Param			date	path		string			true	"Date bucket"
//	@Param			serial	path		string			true	"Serial"
//	@Param			body	body		LogCaseRequest	true	"Note"
//	@Success		200		{object}	CaseDetail
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cases/{date}/{serial}/log [post]
func (h *Handler) LogCase(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	ref, err := caseRef(r)
	if err != nil {
		writeError(w, "log case", err)
		return
	}
	var req LogCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Note == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note is required"))
		return
	}
	c, err := h.svc.LogCase(r.Context(), ref, req.Note)
	if err != nil {
		writeError(w, "log case", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across case summaries and logs
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
