package domain

// SkillRequirement is one skill a job asks for. Mandatory requirements gate
// the overall match score; the rest count toward the nice-to-have dimension.
type SkillRequirement struct {
	Name      string `json:"name"`
	Mandatory bool   `json:"mandatory"`
	Weight    int    `json:"weight"` // relative weight within its dimension, 0 means 1
}

const (
	JobOpen   = "open"
	JobClosed = "closed"
)

type Job struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Company     string             `json:"company"`
	Location    string             `json:"location"`
	WorkMode    string             `json:"workMode"` // remote/hybrid/onsite/unknown
	Description string             `json:"description"`
	Skills      []SkillRequirement `json:"skills"`
	MinYears    float64            `json:"minYears"` // 0 = no lower bound
	MaxYears    float64            `json:"maxYears"` // 0 = no upper bound
	Status      string             `json:"status"`   // open/closed
	SourceURL   string             `json:"sourceURL"`
	CreatedAt   string             `json:"createdAt"`
}

// MandatorySkills returns the subset of requirements marked mandatory.
func (j Job) MandatorySkills() []SkillRequirement {
	var out []SkillRequirement
	for _, s := range j.Skills {
		if s.Mandatory {
			out = append(out, s)
		}
	}
	return out
}

// NiceToHaveSkills returns the non-mandatory requirements.
func (j Job) NiceToHaveSkills() []SkillRequirement {
	var out []SkillRequirement
	for _, s := range j.Skills {
		if !s.Mandatory {
			out = append(out, s)
		}
	}
	return out
}
