// Package scoring evaluates structured candidate profiles against job
// criteria. Everything here is pure domain logic: no I/O, no side effects.
package scoring

import (
	"strings"

	"hirefunnel/internal/funnel/models"
	jobmodels "hirefunnel/internal/job/models"
)

// Assess evaluates every mandatory criterion independently and returns the
// full list of failed criterion names, not just the first, so downstream
// reporting can show all gaps. A nil profile fails every mandatory criterion:
// absent data is "no match", never a fatal condition.
func Assess(profile *models.StructuredProfile, criteria jobmodels.JobCriteria) models.Eligibility {
	var failed []string
	for _, m := range criteria.Mandatory {
		if !passes(profile, m) {
			failed = append(failed, m.Name)
		}
	}
	if len(failed) > 0 {
		return models.Eligibility{Verdict: models.VerdictFail, Failed: failed}
	}
	return models.Eligibility{Verdict: models.VerdictPass}
}

// Rank computes the normalized weighted score over preferred criteria. Each
// criterion contributes weight x normalizedMatch in [0,1]; the total is
// divided by the weight sum so scores are comparable across jobs with
// different criteria sets. Jobs without preferred criteria rank everyone 0.
func Rank(profile *models.StructuredProfile, criteria jobmodels.JobCriteria) float64 {
	var weightSum, total float64
	for _, p := range criteria.Preferred {
		weightSum += p.Weight
		total += p.Weight * normalizedMatch(profile, p)
	}
	if weightSum <= 0 {
		return 0
	}
	return total / weightSum
}

func passes(profile *models.StructuredProfile, m jobmodels.MandatoryCriterion) bool {
	if profile == nil {
		return false
	}
	switch m.Kind {
	case jobmodels.KindMinExperienceYears:
		return profile.ExperienceYears >= m.MinYears
	case jobmodels.KindRequiredSkills:
		have := skillSet(profile.Skills)
		for _, s := range m.Skills {
			if !have[normalizeSkill(s)] {
				return false
			}
		}
		return true
	case jobmodels.KindEducationLevel:
		return jobmodels.EducationRank(profile.EducationLevel) >= jobmodels.EducationRank(m.Level)
	case jobmodels.KindLocation:
		return strings.EqualFold(strings.TrimSpace(profile.Location), strings.TrimSpace(m.Location))
	default:
		return false
	}
}

// normalizedMatch returns a value in [0,1]. Missing profile fields score 0
// for that criterion rather than erroring.
func normalizedMatch(profile *models.StructuredProfile, p jobmodels.PreferredCriterion) float64 {
	if profile == nil {
		return 0
	}
	switch p.Kind {
	case jobmodels.KindMinExperienceYears:
		if p.TargetYears <= 0 {
			return 0
		}
		ratio := profile.ExperienceYears / p.TargetYears
		if ratio > 1 {
			return 1
		}
		if ratio < 0 {
			return 0
		}
		return ratio
	case jobmodels.KindRequiredSkills:
		if len(p.Skills) == 0 {
			return 0
		}
		have := skillSet(profile.Skills)
		matched := 0
		for _, s := range p.Skills {
			if have[normalizeSkill(s)] {
				matched++
			}
		}
		return float64(matched) / float64(len(p.Skills))
	case jobmodels.KindEducationLevel:
		target := jobmodels.EducationRank(p.Level)
		if target <= 0 {
			return 0
		}
		ratio := float64(jobmodels.EducationRank(profile.EducationLevel)) / float64(target)
		if ratio > 1 {
			return 1
		}
		return ratio
	case jobmodels.KindLocation:
		if strings.EqualFold(strings.TrimSpace(profile.Location), strings.TrimSpace(p.Location)) {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func skillSet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		if n := normalizeSkill(s); n != "" {
			set[n] = true
		}
	}
	return set
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
