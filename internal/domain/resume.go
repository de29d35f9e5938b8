package domain

// Resume lifecycle states.
const (
	ResumePending = "pending"
	ResumeParsing = "parsing"
	ResumeParsed  = "parsed"
	ResumeFailed  = "failed"
)

type Resume struct {
	ID             int64    `json:"id"`
	CandidateName  string   `json:"candidateName"`
	CandidateEmail string   `json:"candidateEmail"`
	FileKey        string   `json:"fileKey"`
	Source         string   `json:"source"` // upload/email
	Status         string   `json:"status"`
	ParseError     string   `json:"parseError,omitempty"`
	TokensUsed     int64    `json:"tokensUsed"`
	Profile        *Profile `json:"profile,omitempty"`
	CreatedAt      string   `json:"createdAt"`
	ParsedAt       string   `json:"parsedAt,omitempty"`
}

// Profile is the structured extraction the LLM produces from resume text.
type Profile struct {
	Skills    []string `json:"skills"`
	YearsExp  float64  `json:"years_exp"`
	Titles    []string `json:"titles"`
	Education []string `json:"education"`
	Summary   string   `json:"summary"`
}
