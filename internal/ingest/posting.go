package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/llm"
)

// Importer turns a job-posting URL into a domain.Job: rate-limited fetch,
// HTML-to-text extraction, then LLM field extraction.
type Importer struct {
	Client       *http.Client
	Limiter      *HostLimiter
	Provider     llm.Provider
	MaxPageBytes int
	MaxTokens    int

	// AllowedSchemes gates which posting URLs we fetch. Empty means
	// http and https.
	AllowedSchemes []string
}

func NewImporter(provider llm.Provider, limiter *HostLimiter, maxPageBytes, maxTokens int, schemes []string) *Importer {
	return &Importer{
		Client:         &http.Client{Timeout: 15 * time.Second},
		Limiter:        limiter,
		Provider:       provider,
		MaxPageBytes:   maxPageBytes,
		MaxTokens:      maxTokens,
		AllowedSchemes: schemes,
	}
}

func (im *Importer) schemeAllowed(scheme string) bool {
	allowed := im.AllowedSchemes
	if len(allowed) == 0 {
		allowed = []string{"http", "https"}
	}
	for _, s := range allowed {
		if scheme == s {
			return true
		}
	}
	return false
}

// Import fetches the posting and extracts structured job fields.
func (im *Importer) Import(ctx context.Context, rawURL string) (domain.Job, error) {
	var job domain.Job

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || !im.schemeAllowed(u.Scheme) {
		return job, fmt.Errorf("invalid posting url %q", rawURL)
	}

	text, err := im.fetchPostingText(ctx, u.String())
	if err != nil {
		return job, err
	}

	job, err = im.extractJob(ctx, text)
	if err != nil {
		return job, err
	}
	job.SourceURL = u.String()
	return job, nil
}

func (im *Importer) fetchPostingText(ctx context.Context, url string) (string, error) {
	if err := im.Limiter.WaitURL(ctx, url); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create fetch request: %w", err)
	}
	// Browser-ish UA so careers sites serve the real page
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := im.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch posting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("posting fetch status %s", resp.Status)
	}

	body := io.LimitReader(resp.Body, int64(im.MaxPageBytes))
	text, err := ExtractText(body)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("posting page has no text content")
	}
	return text, nil
}

// ExtractText renders an HTML document down to readable text: script, style
// and chrome elements dropped, block elements separated by newlines.
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript, nav, header, footer, iframe, svg").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	root.Find("h1, h2, h3, h4, li, p, td, div").Each(func(_ int, s *goquery.Selection) {
		// Leaf-ish nodes only; container divs repeat their children's text.
		if s.Children().Length() > 0 && !s.Is("li, p, h1, h2, h3, h4") {
			return
		}
		t := strings.Join(strings.Fields(s.Text()), " ")
		if t != "" {
			b.WriteString(t)
			b.WriteByte('\n')
		}
	})

	if b.Len() == 0 {
		return strings.Join(strings.Fields(root.Text()), " "), nil
	}
	return b.String(), nil
}

var postingSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"title":    map[string]any{"type": "string"},
		"company":  map[string]any{"type": "string"},
		"location": map[string]any{"type": "string"},
		"work_mode": map[string]any{
			"type": "string",
			"enum": []string{"remote", "hybrid", "onsite", "unknown"},
		},
		"description": map[string]any{"type": "string"},
		"skills": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"name":      map[string]any{"type": "string"},
					"mandatory": map[string]any{"type": "boolean"},
				},
				"required": []string{"name", "mandatory"},
			},
		},
		"min_years": map[string]any{"type": "number", "minimum": 0},
		"max_years": map[string]any{"type": "number", "minimum": 0},
	},
	"required": []string{"title", "company", "location", "work_mode", "description", "skills", "min_years", "max_years"},
}

const postingSystemPrompt = "You are a precise structured data extractor for job postings. Extract only what is explicitly stated. Mark a skill mandatory only when the posting calls it required; nice-to-have and preferred skills are not mandatory."

type rawPosting struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	WorkMode    string  `json:"work_mode"`
	Description string  `json:"description"`
	Skills      []struct {
		Name      string `json:"name"`
		Mandatory bool   `json:"mandatory"`
	} `json:"skills"`
	MinYears float64 `json:"min_years"`
	MaxYears float64 `json:"max_years"`
}

func (im *Importer) extractJob(ctx context.Context, postingText string) (domain.Job, error) {
	var job domain.Job

	c, err := im.Provider.Complete(ctx, llm.Request{
		System:     postingSystemPrompt,
		Prompt:     "Extract the job posting fields. Summarize the role in 2-4 sentences for the description; do not copy the full posting.\n\nPosting:\n" + postingText,
		SchemaName: "job_posting",
		Schema:     postingSchema,
		MaxTokens:  im.MaxTokens,
	})
	if err != nil {
		return job, fmt.Errorf("llm complete: %w", err)
	}

	var rp rawPosting
	if err := json.Unmarshal([]byte(c.Text), &rp); err != nil {
		return job, fmt.Errorf("unmarshal posting JSON: %w", err)
	}
	if strings.TrimSpace(rp.Title) == "" {
		return job, fmt.Errorf("posting extraction returned no title")
	}

	job = domain.Job{
		Title:       strings.TrimSpace(rp.Title),
		Company:     strings.TrimSpace(rp.Company),
		Location:    strings.TrimSpace(rp.Location),
		WorkMode:    rp.WorkMode,
		Description: strings.TrimSpace(rp.Description),
		MinYears:    rp.MinYears,
		MaxYears:    rp.MaxYears,
		Status:      "open",
	}
	for _, s := range rp.Skills {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		job.Skills = append(job.Skills, domain.SkillRequirement{Name: name, Mandatory: s.Mandatory})
	}
	return job, nil
}
