// engine/internal/match/score.go
package match

import (
	"math"

	"hirepath-engine/internal/domain"
)

// Weights are the relative weights of the four scoring dimensions plus the
// cap applied when a mandatory skill is missing. Values come from config.
type Weights struct {
	Mandatory           int
	NiceToHave          int
	Experience          int
	Title               int
	MissingMandatoryCap int

	// Aliases maps canonical skill names to spellings that count as evidence.
	Aliases map[string][]string
}

// ScoreProfile computes the deterministic 0-100 match between a parsed
// candidate profile and a job. Dimensions that do not apply to the job (no
// nice-to-have requirements, no experience range, no titles on either side)
// are excluded and their weight redistributed proportionally over the rest,
// so a job with only mandatory requirements is scored on those alone.
func ScoreProfile(p *domain.Profile, job domain.Job, w Weights) (int, *domain.ScoreBreakdown) {
	bd := &domain.ScoreBreakdown{}

	idx := newSkillIndex(p.Skills, w.Aliases)

	type dim struct {
		weight int
		score  int
		out    **domain.DimensionScore
		ds     *domain.DimensionScore
	}
	var dims []dim

	mandatoryMissing := false

	if mand := job.MandatorySkills(); len(mand) > 0 {
		ds := scoreRequirements(idx, mand)
		mandatoryMissing = len(ds.Missing) > 0
		dims = append(dims, dim{w.Mandatory, ds.Score, &bd.Mandatory, ds})
	}

	if nice := job.NiceToHaveSkills(); len(nice) > 0 {
		ds := scoreRequirements(idx, nice)
		dims = append(dims, dim{w.NiceToHave, ds.Score, &bd.NiceToHave, ds})
	}

	if job.MinYears > 0 || job.MaxYears > 0 {
		ds := &domain.DimensionScore{Score: scoreExperience(p.YearsExp, job.MinYears, job.MaxYears)}
		dims = append(dims, dim{w.Experience, ds.Score, &bd.Experience, ds})
	}

	if len(p.Titles) > 0 && job.Title != "" {
		ds := scoreTitle(p.Titles, job.Title)
		dims = append(dims, dim{w.Title, ds.Score, &bd.Title, ds})
	}

	totalWeight := 0
	for _, d := range dims {
		totalWeight += d.weight
	}
	if totalWeight == 0 {
		// Nothing to score against; neutral midpoint.
		return 50, bd
	}

	// Weighted sum with proportional redistribution: each present dimension
	// contributes weight/totalWeight of the overall score.
	sum := 0.0
	for _, d := range dims {
		frac := float64(d.weight) / float64(totalWeight)
		sum += frac * float64(d.score)
		d.ds.Weight = int(math.Round(frac * 100))
		*d.out = d.ds
	}

	score := int(math.Round(sum))

	if mandatoryMissing && score > w.MissingMandatoryCap {
		score = w.MissingMandatoryCap
		bd.Capped = true
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, bd
}

// scoreRequirements scores one skill dimension: the weighted fraction of
// requirements with evidence in the profile.
func scoreRequirements(idx skillIndex, reqs []domain.SkillRequirement) *domain.DimensionScore {
	ds := &domain.DimensionScore{}

	total := 0
	got := 0
	for _, r := range reqs {
		weight := r.Weight
		if weight <= 0 {
			weight = 1
		}
		total += weight
		if idx.has(r.Name) {
			got += weight
			ds.Matched = append(ds.Matched, r.Name)
		} else {
			ds.Missing = append(ds.Missing, r.Name)
		}
	}
	if total > 0 {
		ds.Score = int(math.Round(float64(got) / float64(total) * 100))
	}
	return ds
}

// scoreExperience applies banded proximity scoring against [min,max].
// Inside the range scores 100. Below the minimum the score decays in
// one-year bands; above the maximum it decays gently (overqualification
// costs less than a gap).
func scoreExperience(years, min, max float64) int {
	if min > 0 && years < min {
		gap := min - years
		switch {
		case gap <= 1:
			return 70
		case gap <= 2:
			return 45
		case gap <= 4:
			return 20
		default:
			return 0
		}
	}
	if max > 0 && years > max {
		over := years - max
		switch {
		case over <= 2:
			return 90
		case over <= 5:
			return 75
		default:
			return 60
		}
	}
	return 100
}
