package parse

import (
	"fmt"
	"strings"

	"hirepath-engine/internal/domain"
)

const (
	maxSkills    = 50
	maxTitles    = 10
	maxEducation = 10
	maxYearsExp  = 60
)

// validateProfile applies the schema rules the wire schema cannot express:
// bounds, list caps and entry normalization. The profile is normalized in
// place; a violation that cannot be repaired fails the parse.
func validateProfile(p *domain.Profile) error {
	if p.YearsExp < 0 {
		return fmt.Errorf("years_exp is negative: %v", p.YearsExp)
	}
	if p.YearsExp > maxYearsExp {
		return fmt.Errorf("years_exp is implausible: %v", p.YearsExp)
	}

	p.Skills = normList(p.Skills, maxSkills, true)
	p.Titles = normList(p.Titles, maxTitles, false)
	p.Education = normList(p.Education, maxEducation, false)

	if len(p.Skills) == 0 {
		return fmt.Errorf("no skills extracted")
	}
	return nil
}

// normList trims, dedupes and caps a string list; lower=true lowercases
// entries (skills compare case-insensitively downstream).
func normList(xs []string, max int, lower bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		if lower {
			x = key
		}
		out = append(out, x)
		if len(out) >= max {
			break
		}
	}
	return out
}
