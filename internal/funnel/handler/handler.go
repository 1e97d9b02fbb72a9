// Package handler exposes funnel operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hirefunnel/internal/funnel/models"
	"hirefunnel/internal/funnel/service"
	"hirefunnel/internal/scoring"
	id "hirefunnel/pkg/domain"
	"hirefunnel/pkg/platform/httputil"
	"hirefunnel/pkg/requestcontext"
)

// Service defines the funnel operations the handler needs.
type Service interface {
	CreateCandidate(ctx context.Context, params service.CreateCandidateParams) (*models.CandidateRecord, error)
	GetCandidate(ctx context.Context, candidateID id.CandidateID) (*models.CandidateRecord, error)
	ListCandidatesByJob(ctx context.Context, jobID id.JobID) ([]*models.CandidateRecord, error)
	HandleEvent(ctx context.Context, ev models.Event) (*service.HandleResult, error)
	EvaluateShortlist(ctx context.Context, jobID id.JobID) ([]scoring.ShortlistDecision, error)
}

// Handler wires funnel endpoints to the funnel service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a funnel handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts funnel endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/funnel/candidates", h.HandleCreateCandidate)
	r.Get("/funnel/candidates/{candidateID}", h.HandleGetCandidate)
	r.Get("/funnel/jobs/{jobID}/candidates", h.HandleListCandidates)
	r.Post("/funnel/jobs/{jobID}/shortlist", h.HandleEvaluateShortlist)
	r.Post("/funnel/events", h.HandleSubmitEvent)
}

// HandleCreateCandidate handles POST /funnel/candidates.
func (h *Handler) HandleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCandidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rec, err := h.service.CreateCandidate(ctx, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "candidate creation failed",
			"request_id", requestID,
			"job_id", req.JobID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// HandleGetCandidate handles GET /funnel/candidates/{candidateID}.
func (h *Handler) HandleGetCandidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.GetCandidate(ctx, candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleListCandidates handles GET /funnel/jobs/{jobID}/candidates.
func (h *Handler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recs, err := h.service.ListCandidatesByJob(ctx, jobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*CandidateResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, FromRecord(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleSubmitEvent handles POST /funnel/events.
func (h *Handler) HandleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[SubmitEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	ev := req.Event()

	result, err := h.service.HandleEvent(ctx, ev)
	if err != nil {
		h.logger.WarnContext(ctx, "event rejected",
			"request_id", requestID,
			"candidate_id", ev.CandidateID,
			"event_type", ev.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "event accepted",
		"request_id", requestID,
		"candidate_id", ev.CandidateID,
		"event_type", ev.Type,
		"applied", result.Applied,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusAccepted, FromCommands(result.Commands, result.Applied))
}

// HandleEvaluateShortlist handles POST /funnel/jobs/{jobID}/shortlist.
func (h *Handler) HandleEvaluateShortlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	jobID, err := id.ParseJobID(chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	decisions, err := h.service.EvaluateShortlist(ctx, jobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "shortlist evaluation failed",
			"request_id", requestID,
			"job_id", jobID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromShortlist(decisions))
}
