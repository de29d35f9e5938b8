package parse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hirepath-engine/internal/llm"
)

// cannedProvider returns a fixed completion.
type cannedProvider struct {
	text    string
	tokens  int64
	err     error
	lastReq llm.Request
}

func (p *cannedProvider) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	p.lastReq = req
	return llm.Completion{Text: p.text, Tokens: p.tokens}, p.err
}

const validProfileJSON = `{
	"skills": ["Go", "PostgreSQL", "go"],
	"years_exp": 4.5,
	"titles": ["Backend Engineer"],
	"education": ["BSc Computer Science"],
	"summary": "  Backend engineer with Go experience.  "
}`

func TestParseValidProfile(t *testing.T) {
	prov := &cannedProvider{text: validProfileJSON, tokens: 200}
	p := &Parser{Provider: prov, MaxResumeChars: 10000, MaxTokens: 512}

	profile, tokens, err := p.Parse(context.Background(), "Jane Doe\nBackend Engineer\nGo, PostgreSQL")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tokens != 200 {
		t.Fatalf("tokens = %d, want 200", tokens)
	}
	// "Go" and "go" dedupe case-insensitively and lowercase.
	if len(profile.Skills) != 2 || profile.Skills[0] != "go" || profile.Skills[1] != "postgresql" {
		t.Fatalf("skills = %v", profile.Skills)
	}
	if profile.YearsExp != 4.5 {
		t.Fatalf("years = %v", profile.YearsExp)
	}
	if profile.Summary != "Backend engineer with Go experience." {
		t.Fatalf("summary = %q", profile.Summary)
	}

	if prov.lastReq.SchemaName != "candidate_profile" {
		t.Fatalf("schema name = %q", prov.lastReq.SchemaName)
	}
	if !strings.Contains(prov.lastReq.Prompt, "Jane Doe") {
		t.Fatal("resume text missing from prompt")
	}
}

func TestParseFencedJSON(t *testing.T) {
	prov := &cannedProvider{text: "```json\n" + validProfileJSON + "\n```", tokens: 50}
	p := &Parser{Provider: prov, MaxTokens: 512}

	profile, _, err := p.Parse(context.Background(), "resume text")
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if len(profile.Skills) == 0 {
		t.Fatal("no skills extracted from fenced JSON")
	}
}

func TestParseInvalidJSON(t *testing.T) {
	prov := &cannedProvider{text: "not json at all", tokens: 30}
	p := &Parser{Provider: prov, MaxTokens: 512}

	_, tokens, err := p.Parse(context.Background(), "resume text")
	if err == nil {
		t.Fatal("expected error")
	}
	if tokens != 30 {
		t.Fatalf("tokens = %d, want 30 even on failure", tokens)
	}
}

func TestParseRejectsEmptySkills(t *testing.T) {
	prov := &cannedProvider{text: `{"skills":[],"years_exp":3}`}
	p := &Parser{Provider: prov, MaxTokens: 512}

	if _, _, err := p.Parse(context.Background(), "resume text"); err == nil {
		t.Fatal("expected error for profile without skills")
	}
}

func TestParseRejectsImplausibleYears(t *testing.T) {
	for _, years := range []string{"-1", "80"} {
		prov := &cannedProvider{text: `{"skills":["go"],"years_exp":` + years + `}`}
		p := &Parser{Provider: prov, MaxTokens: 512}
		if _, _, err := p.Parse(context.Background(), "resume text"); err == nil {
			t.Fatalf("years_exp %s accepted", years)
		}
	}
}

func TestParseEmptyResume(t *testing.T) {
	p := &Parser{Provider: &cannedProvider{}, MaxTokens: 512}
	if _, _, err := p.Parse(context.Background(), "   \n  "); err == nil {
		t.Fatal("expected error for empty resume")
	}
}

func TestParseTruncatesLongResume(t *testing.T) {
	prov := &cannedProvider{text: validProfileJSON}
	p := &Parser{Provider: prov, MaxResumeChars: 100, MaxTokens: 512}

	long := strings.Repeat("skill ", 1000)
	if _, _, err := p.Parse(context.Background(), long); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(prov.lastReq.Prompt) > 800 {
		t.Fatalf("prompt length %d suggests no truncation", len(prov.lastReq.Prompt))
	}
}

func TestParsePropagatesProviderError(t *testing.T) {
	prov := &cannedProvider{err: llm.ErrBudgetExhausted, tokens: 0}
	p := &Parser{Provider: prov, MaxTokens: 512}

	_, _, err := p.Parse(context.Background(), "resume text")
	if !errors.Is(err, llm.ErrBudgetExhausted) {
		t.Fatalf("err = %v", err)
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":        `{"a":1}`,
		"```\n{\"a\":1}\n```":            `{"a":1}`,
		"  \n```json\n{\"a\":1}\n```\n ": `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripFences(in); got != want {
			t.Errorf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
