// Package models defines job requisition criteria. Criteria are immutable
// once a requisition opens: created once, read-only thereafter.
package models

import (
	"strings"
	"time"

	id "hirefunnel/pkg/domain"
	dErrors "hirefunnel/pkg/domain-errors"
)

// CriterionKind selects the predicate or match function a criterion applies
// to the structured profile.
type CriterionKind string

const (
	// KindMinExperienceYears passes when experience_years >= MinYears. As a
	// preferred criterion it scores experience_years / TargetYears capped at 1.
	KindMinExperienceYears CriterionKind = "min_experience_years"
	// KindRequiredSkills passes when every listed skill is present. As a
	// preferred criterion it scores the fraction of listed skills present.
	KindRequiredSkills CriterionKind = "required_skills"
	// KindEducationLevel passes when the profile's level is at or above the
	// target on the education ladder. As a preferred criterion it scores the
	// profile's ladder position relative to the target, capped at 1.
	KindEducationLevel CriterionKind = "education_level"
	// KindLocation passes (scores 1) on a case-insensitive location match.
	KindLocation CriterionKind = "location"
)

// MandatoryCriterion is an independent boolean predicate over the structured
// profile. Any failure yields an eligibility fail.
type MandatoryCriterion struct {
	Name     string        `json:"name"`
	Kind     CriterionKind `json:"kind"`
	MinYears float64       `json:"min_years,omitempty"`
	Skills   []string      `json:"skills,omitempty"`
	Level    string        `json:"level,omitempty"`
	Location string        `json:"location,omitempty"`
}

// PreferredCriterion contributes weight x normalizedMatch to the rank score.
type PreferredCriterion struct {
	Name        string        `json:"name"`
	Kind        CriterionKind `json:"kind"`
	Weight      float64       `json:"weight"`
	TargetYears float64       `json:"target_years,omitempty"`
	Skills      []string      `json:"skills,omitempty"`
	Level       string        `json:"level,omitempty"`
	Location    string        `json:"location,omitempty"`
}

// JobCriteria is the immutable scoring contract for one requisition.
type JobCriteria struct {
	JobID         id.JobID             `json:"job_id"`
	Title         string               `json:"title"`
	Mandatory     []MandatoryCriterion `json:"mandatory"`
	Preferred     []PreferredCriterion `json:"preferred"`
	ShortlistSize int                  `json:"shortlist_size"`
	// ScoreThreshold is the minimum normalized rank score for shortlisting,
	// in [0,1].
	ScoreThreshold float64   `json:"score_threshold"`
	CreatedAt      time.Time `json:"created_at"`
}

var knownKinds = map[CriterionKind]bool{
	KindMinExperienceYears: true,
	KindRequiredSkills:     true,
	KindEducationLevel:     true,
	KindLocation:           true,
}

// Validate rejects criteria that cannot produce meaningful decisions.
// Invalid criteria reject record creation outright.
func (c JobCriteria) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "job title is required")
	}
	if c.ShortlistSize <= 0 {
		return dErrors.New(dErrors.CodeValidation, "shortlist_size must be positive")
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return dErrors.New(dErrors.CodeValidation, "score_threshold must be in [0,1]")
	}

	seen := make(map[string]bool)
	for _, m := range c.Mandatory {
		if err := validateCriterion(m.Name, m.Kind, seen); err != nil {
			return err
		}
	}

	var weightSum float64
	for _, p := range c.Preferred {
		if err := validateCriterion(p.Name, p.Kind, seen); err != nil {
			return err
		}
		if p.Weight < 0 {
			return dErrors.Newf(dErrors.CodeValidation, "criterion %q has negative weight", p.Name)
		}
		weightSum += p.Weight
	}
	if len(c.Preferred) > 0 && weightSum <= 0 {
		return dErrors.New(dErrors.CodeValidation, "preferred criteria weights must sum to a positive total")
	}
	return nil
}

func validateCriterion(name string, kind CriterionKind, seen map[string]bool) error {
	if strings.TrimSpace(name) == "" {
		return dErrors.New(dErrors.CodeValidation, "criterion name is required")
	}
	if !knownKinds[kind] {
		return dErrors.Newf(dErrors.CodeValidation, "criterion %q has unknown kind %q", name, kind)
	}
	if seen[name] {
		return dErrors.Newf(dErrors.CodeValidation, "criterion name %q is duplicated", name)
	}
	seen[name] = true
	return nil
}

// EducationRank orders education levels for ladder comparisons. Unknown
// levels rank below every known level.
func EducationRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "high_school":
		return 1
	case "associate":
		return 2
	case "bachelor":
		return 3
	case "master":
		return 4
	case "doctorate":
		return 5
	default:
		return 0
	}
}
