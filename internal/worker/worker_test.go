package worker

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"hirepath-engine/internal/config"
	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/events"
	"hirepath-engine/internal/llm"
	"hirepath-engine/internal/store"
)

type cannedProvider struct {
	text   string
	tokens int64
	err    error
}

func (p *cannedProvider) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	return llm.Completion{Text: p.text, Tokens: p.tokens}, p.err
}

func testConfig() config.Config {
	var c config.Config
	c.LLM.MaxTokens = 512
	c.LLM.TimeoutSeconds = 10
	c.Parsing.MaxResumeChars = 10000
	c.Parsing.WorkerSeconds = 30
	c.Parsing.Concurrency = 2
	c.Scoring.MandatoryWeight = 50
	c.Scoring.NiceToHaveWeight = 20
	c.Scoring.ExperienceWeight = 20
	c.Scoring.TitleWeight = 10
	c.Scoring.MissingMandatoryCap = 40
	return c
}

func testWorker(t *testing.T, provider llm.Provider) (*Worker, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db.Pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var cfgVal atomic.Value
	cfgVal.Store(testConfig())
	var status atomic.Value
	status.Store(ParseStatus{})

	return &Worker{
		DB:       db.Pool,
		CfgVal:   &cfgVal,
		Hub:      events.NewHub(),
		Provider: provider,
		Budget:   llm.NewTokenBudget(1_000_000),
		Status:   &status,
	}, db
}

func seedResume(t *testing.T, db *store.DB, body string) int64 {
	t.Helper()
	ctx := context.Background()
	key, err := store.SaveFile(ctx, db.Pool, []byte(body), "text/plain")
	if err != nil {
		t.Fatalf("save file: %v", err)
	}
	id, err := store.InsertResume(ctx, db.Pool, domain.Resume{FileKey: key, Source: "upload"})
	if err != nil {
		t.Fatalf("insert resume: %v", err)
	}
	return id
}

const profileJSON = `{"skills":["go","postgresql"],"years_exp":5,"titles":["Backend Engineer"],"education":[],"summary":"s"}`

func TestRunOnceParsesPending(t *testing.T) {
	w, db := testWorker(t, &cannedProvider{text: profileJSON, tokens: 150})
	id := seedResume(t, db, "resume text with Go experience")

	parsed, failed, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if parsed != 1 || failed != 0 {
		t.Fatalf("parsed=%d failed=%d", parsed, failed)
	}

	r, err := store.GetResume(context.Background(), db.Pool, id)
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != domain.ResumeParsed {
		t.Fatalf("status = %q", r.Status)
	}
	if r.Profile == nil || r.Profile.YearsExp != 5 {
		t.Fatalf("profile = %+v", r.Profile)
	}

	st := w.Status.Load().(ParseStatus)
	if st.Running || st.LastParsed != 1 || st.LastOkAt == "" {
		t.Fatalf("status snapshot = %+v", st)
	}
}

func TestRunOnceMarksFailures(t *testing.T) {
	w, db := testWorker(t, &cannedProvider{err: llm.ErrNoProvider})
	id := seedResume(t, db, "resume text")

	parsed, failed, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if parsed != 0 || failed != 1 {
		t.Fatalf("parsed=%d failed=%d", parsed, failed)
	}

	r, _ := store.GetResume(context.Background(), db.Pool, id)
	if r.Status != domain.ResumeFailed || r.ParseError == "" {
		t.Fatalf("resume = %+v", r)
	}
}

func TestRunOnceEmptyQueue(t *testing.T) {
	w, _ := testWorker(t, &cannedProvider{text: profileJSON})
	parsed, failed, err := w.RunOnce(context.Background())
	if err != nil || parsed != 0 || failed != 0 {
		t.Fatalf("parsed=%d failed=%d err=%v", parsed, failed, err)
	}
}

func TestProcessResumeRejectsBinaryFile(t *testing.T) {
	w, db := testWorker(t, &cannedProvider{text: profileJSON})
	ctx := context.Background()

	key, _ := store.SaveFile(ctx, db.Pool, []byte("%PDF-1.4"), "application/pdf")
	id, _ := store.InsertResume(ctx, db.Pool, domain.Resume{FileKey: key, Source: "upload"})

	if ok := w.ProcessResume(ctx, testConfig(), id); ok {
		t.Fatal("binary file parsed")
	}
	r, _ := store.GetResume(ctx, db.Pool, id)
	if r.Status != domain.ResumeFailed {
		t.Fatalf("status = %q", r.Status)
	}
}

func TestProcessResumeSniffsOctetStream(t *testing.T) {
	w, db := testWorker(t, &cannedProvider{text: profileJSON})
	ctx := context.Background()

	// Binary bytes behind the generic upload type must not reach the LLM.
	elf := append([]byte{0x7f, 'E', 'L', 'F', 0x02, 0x01}, make([]byte, 64)...)
	key, _ := store.SaveFile(ctx, db.Pool, elf, "application/octet-stream")
	id, _ := store.InsertResume(ctx, db.Pool, domain.Resume{FileKey: key, Source: "upload"})

	if ok := w.ProcessResume(ctx, testConfig(), id); ok {
		t.Fatal("binary octet-stream parsed")
	}
	r, _ := store.GetResume(ctx, db.Pool, id)
	if r.Status != domain.ResumeFailed {
		t.Fatalf("status = %q", r.Status)
	}

	// Plain text behind the same generic type still parses.
	key, _ = store.SaveFile(ctx, db.Pool, []byte("Ada Lovelace\nSkills: Go, PostgreSQL"), "application/octet-stream")
	id, _ = store.InsertResume(ctx, db.Pool, domain.Resume{FileKey: key, Source: "upload"})

	if ok := w.ProcessResume(ctx, testConfig(), id); !ok {
		r, _ := store.GetResume(ctx, db.Pool, id)
		t.Fatalf("text octet-stream rejected: %+v", r)
	}
}

func TestParsedResumeScoresItsApplications(t *testing.T) {
	w, db := testWorker(t, &cannedProvider{text: profileJSON, tokens: 50})
	ctx := context.Background()

	resID := seedResume(t, db, "resume text")
	jobID, err := store.InsertJob(ctx, db.Pool, domain.Job{
		Title:   "Backend Engineer",
		Company: "Acme",
		Skills: []domain.SkillRequirement{
			{Name: "go", Mandatory: true},
			{Name: "postgresql"},
		},
		MinYears: 3,
		MaxYears: 8,
	})
	if err != nil {
		t.Fatal(err)
	}
	appID, err := store.InsertApplication(ctx, db.Pool, domain.Application{JobID: jobID, ResumeID: resID})
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := w.RunOnce(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	a, err := store.GetApplication(ctx, db.Pool, appID)
	if err != nil {
		t.Fatal(err)
	}
	if a.Status != domain.AppScored {
		t.Fatalf("status = %q, want scored", a.Status)
	}
	if a.Score != 100 {
		t.Fatalf("score = %d, want 100 for full match", a.Score)
	}
	if a.Breakdown == nil || a.Breakdown.Mandatory == nil {
		t.Fatalf("breakdown = %+v", a.Breakdown)
	}
}

func TestScoreApplicationUnparsedResume(t *testing.T) {
	w, db := testWorker(t, &cannedProvider{})
	ctx := context.Background()

	resID := seedResume(t, db, "resume text")
	jobID, _ := store.InsertJob(ctx, db.Pool, domain.Job{Title: "X", Company: "Y"})
	appID, _ := store.InsertApplication(ctx, db.Pool, domain.Application{JobID: jobID, ResumeID: resID})

	if _, err := ScoreApplication(ctx, db.Pool, testConfig(), w.Hub, appID); err == nil {
		t.Fatal("expected error scoring an unparsed resume")
	}
}
