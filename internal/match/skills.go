package match

import (
	"strings"

	"hirepath-engine/internal/domain"
)

// skillIndex answers "does this profile show evidence of skill X" with
// normalized, alias-tolerant lookups.
type skillIndex struct {
	skills  map[string]bool
	aliases map[string][]string
}

func newSkillIndex(skills []string, aliases map[string][]string) skillIndex {
	m := make(map[string]bool, len(skills))
	for _, s := range skills {
		m[normSkill(s)] = true
	}
	return skillIndex{skills: m, aliases: aliases}
}

func (idx skillIndex) has(name string) bool {
	n := normSkill(name)
	if idx.skills[n] {
		return true
	}
	// A configured alias counts as evidence for the canonical name and
	// vice versa ("k8s" on the resume satisfies "kubernetes").
	for canon, alts := range idx.aliases {
		c := normSkill(canon)
		if c != n && !containsNorm(alts, n) {
			continue
		}
		if idx.skills[c] {
			return true
		}
		for _, a := range alts {
			if idx.skills[normSkill(a)] {
				return true
			}
		}
	}
	return false
}

func containsNorm(xs []string, n string) bool {
	for _, x := range xs {
		if normSkill(x) == n {
			return true
		}
	}
	return false
}

// normSkill lowercases and collapses separators so "Node.JS", "node js" and
// "node-js" compare equal. Tech-significant runes (+ and #) survive.
func normSkill(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '+', r == '#':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// scoreTitle measures affinity between the candidate's held titles and the
// job title: the best per-title keyword overlap wins.
func scoreTitle(titles []string, jobTitle string) *domain.DimensionScore {
	jobKW := titleKeywords(jobTitle)
	if len(jobKW) == 0 {
		return &domain.DimensionScore{Score: 50}
	}

	best := 0
	var bestMatched []string
	for _, t := range titles {
		held := titleKeywords(t)
		matched := 0
		var names []string
		for kw := range jobKW {
			if held[kw] {
				matched++
				names = append(names, kw)
			}
		}
		score := matched * 100 / len(jobKW)
		if score > best {
			best = score
			bestMatched = names
		}
	}
	return &domain.DimensionScore{Score: best, Matched: bestMatched}
}

// titleStopWords filters grade and filler words out of title comparison so
// "Senior Backend Engineer" matches "Backend Engineer".
var titleStopWords = map[string]bool{
	"senior": true, "junior": true, "staff": true, "principal": true,
	"lead": true, "mid": true, "level": true, "i": true, "ii": true,
	"iii": true, "the": true, "of": true, "and": true,
}

func titleKeywords(title string) map[string]bool {
	kw := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.Trim(w, ".,()/-")
		if len(w) < 2 || titleStopWords[w] {
			continue
		}
		kw[w] = true
	}
	return kw
}
