package scoring

import (
	"sort"

	"hirefunnel/internal/funnel/models"
	jobmodels "hirefunnel/internal/job/models"
	id "hirefunnel/pkg/domain"
)

// ShortlistDecision is the per-candidate outcome of one shortlist cut.
type ShortlistDecision struct {
	CandidateID id.CandidateID
	Outcome     models.ShortlistOutcome
}

// Shortlist applies the threshold-and-capacity cut over a job's ranked
// candidates. Candidates below the score threshold are rejected; candidates
// at or above it are shortlisted in score order until the shortlist is full,
// and the remainder are held for future openings.
//
// The sort is stable and candidates arrive in submission order, so equal
// scores keep source order and the cutoff at the capacity boundary is
// deterministic.
func Shortlist(ranked []*models.CandidateRecord, criteria jobmodels.JobCriteria) []ShortlistDecision {
	ordered := make([]*models.CandidateRecord, 0, len(ranked))
	ordered = append(ordered, ranked...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return score(ordered[i]) > score(ordered[j])
	})

	decisions := make([]ShortlistDecision, 0, len(ordered))
	taken := 0
	for _, rec := range ordered {
		d := ShortlistDecision{CandidateID: rec.ID}
		switch {
		case score(rec) < criteria.ScoreThreshold:
			d.Outcome = models.ShortlistRejected
		case taken < criteria.ShortlistSize:
			d.Outcome = models.ShortlistIncluded
			taken++
		default:
			d.Outcome = models.ShortlistHeld
		}
		decisions = append(decisions, d)
	}
	return decisions
}

func score(rec *models.CandidateRecord) float64 {
	if rec.RankScore == nil {
		return 0
	}
	return *rec.RankScore
}
