// Package handler exposes job criteria operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hirefunnel/internal/job/models"
	id "hirefunnel/pkg/domain"
	"hirefunnel/pkg/platform/httputil"
	"hirefunnel/pkg/requestcontext"
)

// Service defines the job operations the handler needs.
type Service interface {
	CreateJob(ctx context.Context, criteria models.JobCriteria) (*models.JobCriteria, error)
	GetJob(ctx context.Context, jobID id.JobID) (*models.JobCriteria, error)
	ListJobs(ctx context.Context) ([]*models.JobCriteria, error)
}

// Handler wires job endpoints to the job service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a job handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts job endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/jobs", h.HandleCreateJob)
	r.Get("/jobs", h.HandleListJobs)
	r.Get("/jobs/{jobID}", h.HandleGetJob)
}

// CreateJobRequest is the HTTP request body for POST /jobs. Validation is
// deferred to the domain model, which owns the criteria invariants.
type CreateJobRequest struct {
	Title          string                      `json:"title"`
	Mandatory      []models.MandatoryCriterion `json:"mandatory"`
	Preferred      []models.PreferredCriterion `json:"preferred"`
	ShortlistSize  int                         `json:"shortlist_size"`
	ScoreThreshold float64                     `json:"score_threshold"`
}

// HandleCreateJob handles POST /jobs.
func (h *Handler) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateJobRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	criteria, err := h.service.CreateJob(ctx, models.JobCriteria{
		Title:          req.Title,
		Mandatory:      req.Mandatory,
		Preferred:      req.Preferred,
		ShortlistSize:  req.ShortlistSize,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "job creation rejected",
			"request_id", requestID,
			"title", req.Title,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, criteria)
}

// HandleGetJob handles GET /jobs/{jobID}.
func (h *Handler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	criteria, err := h.service.GetJob(ctx, jobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, criteria)
}

// HandleListJobs handles GET /jobs.
func (h *Handler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListJobs(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, jobs)
}
