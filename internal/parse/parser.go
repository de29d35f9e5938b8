package parse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/llm"
)

// Parser turns raw resume text into a validated domain.Profile via the LLM.
type Parser struct {
	Provider       llm.Provider
	MaxResumeChars int
	MaxTokens      int
}

// Parse builds the extraction prompt, calls the provider and validates the
// structured response. Token usage is returned even on failure so the caller
// can record what the attempt cost.
func (p *Parser) Parse(ctx context.Context, resumeText string) (*domain.Profile, int64, error) {
	text := strings.TrimSpace(resumeText)
	if text == "" {
		return nil, 0, fmt.Errorf("resume text is empty")
	}
	if p.MaxResumeChars > 0 && len(text) > p.MaxResumeChars {
		text = text[:p.MaxResumeChars]
	}

	var promptBuf bytes.Buffer
	if err := profileTmpl.Execute(&promptBuf, struct{ Text string }{Text: text}); err != nil {
		return nil, 0, fmt.Errorf("render prompt: %w", err)
	}

	c, err := p.Provider.Complete(ctx, llm.Request{
		System:     profileSystemPrompt,
		Prompt:     promptBuf.String(),
		SchemaName: "candidate_profile",
		Schema:     profileSchema,
		MaxTokens:  p.MaxTokens,
	})
	if err != nil {
		return nil, c.Tokens, fmt.Errorf("llm complete: %w", err)
	}

	profile, err := parseProfile(c.Text)
	if err != nil {
		return nil, c.Tokens, fmt.Errorf("parse profile: %w", err)
	}

	return profile, c.Tokens, nil
}

// rawProfile is the JSON shape returned by the LLM (matches profileSchema).
type rawProfile struct {
	Skills    []string `json:"skills"`
	YearsExp  float64  `json:"years_exp"`
	Titles    []string `json:"titles"`
	Education []string `json:"education"`
	Summary   string   `json:"summary"`
}

func parseProfile(raw string) (*domain.Profile, error) {
	var rp rawProfile
	if err := json.Unmarshal([]byte(StripFences(raw)), &rp); err != nil {
		return nil, fmt.Errorf("unmarshal profile JSON: %w", err)
	}

	p := &domain.Profile{
		Skills:    rp.Skills,
		YearsExp:  rp.YearsExp,
		Titles:    rp.Titles,
		Education: rp.Education,
		Summary:   strings.TrimSpace(rp.Summary),
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

// StripFences removes a markdown code fence wrapper if the model added one.
// Structured outputs should make this a no-op, but fallback providers and
// older models still fence their JSON sometimes.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if idx := strings.Index(text, "\n"); idx != -1 {
		text = text[idx+1:]
	}
	if idx := strings.LastIndex(text, "```"); idx != -1 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
