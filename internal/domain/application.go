package domain

// Application lifecycle states.
const (
	AppSubmitted   = "submitted"
	AppScored      = "scored"
	AppShortlisted = "shortlisted"
	AppRejected    = "rejected"
)

type Application struct {
	ID        int64           `json:"id"`
	JobID     int64           `json:"jobId"`
	ResumeID  int64           `json:"resumeId"`
	Status    string          `json:"status"`
	Score     int             `json:"score"`
	Breakdown *ScoreBreakdown `json:"breakdown,omitempty"`
	CreatedAt string          `json:"createdAt"`
	ScoredAt  string          `json:"scoredAt,omitempty"`
}

// DimensionScore is one weighted component of the overall match score.
type DimensionScore struct {
	Score   int      `json:"score"`  // 0..100 within the dimension
	Weight  int      `json:"weight"` // effective weight after redistribution
	Matched []string `json:"matched,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

type ScoreBreakdown struct {
	Mandatory  *DimensionScore `json:"mandatory,omitempty"`
	NiceToHave *DimensionScore `json:"niceToHave,omitempty"`
	Experience *DimensionScore `json:"experience,omitempty"`
	Title      *DimensionScore `json:"title,omitempty"`

	// Capped is set when a missing mandatory skill clamped the overall score.
	Capped bool `json:"capped,omitempty"`
}
