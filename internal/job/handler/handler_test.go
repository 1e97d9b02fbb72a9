package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"hirefunnel/internal/job/models"
	id "hirefunnel/pkg/domain"
	dErrors "hirefunnel/pkg/domain-errors"
	"hirefunnel/pkg/testutil"
)

type fakeService struct {
	criteria *models.JobCriteria
	jobs     []*models.JobCriteria
	err      error

	lastCriteria models.JobCriteria
}

func (f *fakeService) CreateJob(_ context.Context, criteria models.JobCriteria) (*models.JobCriteria, error) {
	f.lastCriteria = criteria
	return f.criteria, f.err
}

func (f *fakeService) GetJob(_ context.Context, _ id.JobID) (*models.JobCriteria, error) {
	return f.criteria, f.err
}

func (f *fakeService) ListJobs(_ context.Context) ([]*models.JobCriteria, error) {
	return f.jobs, f.err
}

type HandlerSuite struct {
	suite.Suite
	svc    *fakeService
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.svc = &fakeService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.svc, logger).Register(s.router)
}

// SetupSubTest rebuilds the fake per s.Run so stubbed errors never leak
// between subtests.
func (s *HandlerSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *HandlerSuite) TestCreateJob() {
	s.Run("valid request creates and returns 201", func() {
		s.svc.criteria = &models.JobCriteria{JobID: id.NewJobID(), Title: "Backend Engineer", ShortlistSize: 3}
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/jobs", map[string]any{
			"title":           "Backend Engineer",
			"shortlist_size":  3,
			"score_threshold": 0.5,
			"mandatory": []map[string]any{
				{"name": "min_exp", "kind": "min_experience_years", "min_years": 3},
			},
		})

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "title", "Backend Engineer")
		s.Equal("Backend Engineer", s.svc.lastCriteria.Title)
		s.Require().Len(s.svc.lastCriteria.Mandatory, 1)
		s.Equal(models.KindMinExperienceYears, s.svc.lastCriteria.Mandatory[0].Kind)
	})

	s.Run("validation failure maps to 400", func() {
		s.svc.err = dErrors.New(dErrors.CodeValidation, "job title is required")
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/jobs", map[string]any{
			"shortlist_size": 3,
		})

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("malformed body is a bad request", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/jobs", "{not json")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
}

func (s *HandlerSuite) TestGetJob() {
	s.Run("returns criteria", func() {
		s.svc.criteria = &models.JobCriteria{JobID: id.NewJobID(), Title: "Backend Engineer"}
		req := testutil.NewRequest(s.T(), http.MethodGet, "/jobs/"+s.svc.criteria.JobID.String())

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "job_id", s.svc.criteria.JobID.String())
	})

	s.Run("unknown job maps to 404", func() {
		s.svc.err = dErrors.New(dErrors.CodeNotFound, "job not found")
		req := testutil.NewRequest(s.T(), http.MethodGet, "/jobs/"+id.NewJobID().String())

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("invalid ID never reaches the service", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/jobs/not-a-uuid")

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestListJobs() {
	s.svc.jobs = []*models.JobCriteria{
		{JobID: id.NewJobID(), Title: "First"},
		{JobID: id.NewJobID(), Title: "Second"},
	}
	req := testutil.NewRequest(s.T(), http.MethodGet, "/jobs")

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[[]models.JobCriteria](s.T(), rr)
	s.Len(*resp, 2)
}
