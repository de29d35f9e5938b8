package parse

import "text/template"

// profileSchema is enforced server-side via structured outputs, so the
// response can be unmarshalled directly into rawProfile.
var profileSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"skills": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"years_exp": map[string]any{
			"type":    "number",
			"minimum": 0,
		},
		"titles": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"education": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"summary": map[string]any{"type": "string"},
	},
	"required": []string{"skills", "years_exp", "titles", "education", "summary"},
}

const profileSystemPrompt = "You are a precise structured data extractor for resumes. Extract only what is explicitly stated; never invent experience."

var profileTmpl = template.Must(template.New("profile").Parse(`Extract a candidate profile from this resume.

Rules:
- skills: concrete technologies, tools, and languages the candidate has used. Lowercase each entry.
- years_exp: total years of professional experience, summed across positions. Use 0 if none are stated.
- titles: job titles the candidate has held, most recent first.
- education: one entry per degree or certification, "degree, institution" form.
- summary: 2-3 sentences describing the candidate.

Resume:
{{.Text}}`))
