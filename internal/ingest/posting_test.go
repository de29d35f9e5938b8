package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hirepath-engine/internal/llm"
)

type cannedProvider struct {
	text    string
	err     error
	lastReq llm.Request
}

func (p *cannedProvider) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	p.lastReq = req
	return llm.Completion{Text: p.text, Tokens: 100}, p.err
}

const postingHTML = `<!DOCTYPE html>
<html>
<head><title>Careers</title><style>body{color:red}</style></head>
<body>
<nav>Home | Jobs | About</nav>
<script>trackPageView()</script>
<h1>Senior Backend Engineer</h1>
<p>Acme builds infrastructure for the modern web.</p>
<ul>
<li>5+ years of Go experience required</li>
<li>Kubernetes is a plus</li>
</ul>
<footer>Copyright Acme</footer>
</body>
</html>`

const postingJSON = `{
	"title": "Senior Backend Engineer",
	"company": "Acme",
	"location": "Remote",
	"work_mode": "remote",
	"description": "Build infrastructure services in Go.",
	"skills": [
		{"name": "go", "mandatory": true},
		{"name": "kubernetes", "mandatory": false}
	],
	"min_years": 5,
	"max_years": 0
}`

func testImporter(provider llm.Provider) *Importer {
	return NewImporter(provider, NewHostLimiter(1000, 10), 1<<20, 512, nil)
}

func TestImportPosting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	prov := &cannedProvider{text: postingJSON}
	im := testImporter(prov)
	im.Client = srv.Client()

	job, err := im.Import(context.Background(), srv.URL+"/jobs/123")
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if job.Title != "Senior Backend Engineer" || job.Company != "Acme" {
		t.Fatalf("job = %+v", job)
	}
	if job.SourceURL != srv.URL+"/jobs/123" {
		t.Fatalf("source url = %q", job.SourceURL)
	}
	if job.Status != "open" {
		t.Fatalf("status = %q, want open", job.Status)
	}
	if len(job.Skills) != 2 || !job.Skills[0].Mandatory || job.Skills[1].Mandatory {
		t.Fatalf("skills = %+v", job.Skills)
	}
	if job.MinYears != 5 {
		t.Fatalf("min years = %v", job.MinYears)
	}

	// The LLM should see page text, not markup or chrome.
	prompt := prov.lastReq.Prompt
	if !strings.Contains(prompt, "5+ years of Go experience required") {
		t.Fatalf("list item missing from prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, "trackPageView") || strings.Contains(prompt, "<h1>") {
		t.Fatalf("markup leaked into prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, "Home | Jobs | About") {
		t.Fatalf("nav leaked into prompt:\n%s", prompt)
	}
}

func TestImportRejectsBadURL(t *testing.T) {
	im := testImporter(&cannedProvider{})
	for _, u := range []string{"", "not a url", "ftp://example.com/x", "file:///etc/passwd"} {
		if _, err := im.Import(context.Background(), u); err == nil {
			t.Errorf("url %q accepted", u)
		}
	}
}

func TestImportSchemeList(t *testing.T) {
	im := testImporter(&cannedProvider{})
	im.AllowedSchemes = []string{"https"}
	if _, err := im.Import(context.Background(), "http://example.com/job"); err == nil {
		t.Fatal("http accepted with https-only scheme list")
	}
}

func TestImportRequiresTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>some text</p></body></html>"))
	}))
	defer srv.Close()

	prov := &cannedProvider{text: `{"title":"","company":"Acme","skills":[]}`}
	im := testImporter(prov)
	im.Client = srv.Client()

	if _, err := im.Import(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error when extraction has no title")
	}
}

func TestImportUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	im := testImporter(&cannedProvider{})
	im.Client = srv.Client()

	if _, err := im.Import(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestExtractTextFallback(t *testing.T) {
	text, err := ExtractText(strings.NewReader("<html><body>bare text only</body></html>"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(text, "bare text only") {
		t.Fatalf("text = %q", text)
	}
}
