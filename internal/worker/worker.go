package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"hirepath-engine/internal/config"
	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/events"
	"hirepath-engine/internal/llm"
	"hirepath-engine/internal/match"
	"hirepath-engine/internal/parse"
	"hirepath-engine/internal/store"
)

// ParseStatus is the snapshot exposed at /parse/status.
type ParseStatus struct {
	LastRunAt  string `json:"last_run_at"`
	LastOkAt   string `json:"last_ok_at"`
	LastError  string `json:"last_error"`
	LastParsed int    `json:"last_parsed"`
	LastFailed int    `json:"last_failed"`
	Running    bool   `json:"running"`
	TokensUsed int64  `json:"tokens_used"`
}

// Worker drains the pending resume queue: parse each resume with the LLM,
// then score every application that resume belongs to.
type Worker struct {
	DB       *sql.DB
	CfgVal   *atomic.Value // stores config.Config
	Hub      *events.Hub
	Provider llm.Provider
	Budget   *llm.TokenBudget

	Status *atomic.Value // stores ParseStatus

	runMu sync.Mutex // one drain at a time; ticker and HTTP trigger share it
}

// Start runs the drain loop until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		for {
			cfg := w.CfgVal.Load().(config.Config)
			interval := time.Duration(cfg.Parsing.WorkerSeconds) * time.Second

			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}

			parsed, failed, err := w.RunOnce(ctx)
			if err != nil {
				log.Printf("[worker] error: %v", err)
			} else if parsed+failed > 0 {
				log.Printf("[worker] ok parsed=%d failed=%d", parsed, failed)
			}
		}
	}()
}

// RunOnce drains the current pending backlog with bounded concurrency and
// updates the status snapshot.
func (w *Worker) RunOnce(ctx context.Context) (parsed, failed int, err error) {
	w.runMu.Lock()
	defer w.runMu.Unlock()

	cfg := w.CfgVal.Load().(config.Config)

	w.setStatus(func(st *ParseStatus) {
		st.Running = true
		st.LastRunAt = time.Now().Format(time.RFC3339)
		st.LastError = ""
	})
	defer func() {
		now := time.Now().Format(time.RFC3339)
		w.setStatus(func(st *ParseStatus) {
			st.Running = false
			st.LastParsed = parsed
			st.LastFailed = failed
			if err != nil {
				st.LastError = err.Error()
			} else {
				st.LastOkAt = now
			}
			if w.Budget != nil {
				st.TokensUsed = w.Budget.Used()
			}
		})
	}()

	pending, err := store.ListResumesByStatus(ctx, w.DB, domain.ResumePending, 200)
	if err != nil {
		return 0, 0, fmt.Errorf("list pending resumes: %w", err)
	}
	if len(pending) == 0 {
		return 0, 0, nil
	}

	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(cfg.Parsing.Concurrency)

	for _, r := range pending {
		r := r
		g.Go(func() error {
			ok := w.ProcessResume(ctx, cfg, r.ID)
			mu.Lock()
			if ok {
				parsed++
			} else {
				failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return parsed, failed, nil
}

// ProcessResume parses one pending resume and scores its applications.
// Returns true when the resume reached parsed state.
func (w *Worker) ProcessResume(ctx context.Context, cfg config.Config, id int64) bool {
	claimed, err := store.MarkResumeParsing(ctx, w.DB, id)
	if err != nil {
		log.Printf("[worker] resume=%d claim: %v", id, err)
		return false
	}
	if !claimed {
		// Someone else got there first.
		return false
	}

	fail := func(tokens int64, cause error) bool {
		log.Printf("[worker] resume=%d parse failed: %v", id, cause)
		if err := store.MarkResumeFailed(ctx, w.DB, id, tokens, cause.Error()); err != nil {
			log.Printf("[worker] resume=%d mark failed: %v", id, err)
		}
		w.Hub.Publish(events.MakeEvent("", events.TypeResumeFailed, 1, map[string]any{"id": id}))
		return false
	}

	r, err := store.GetResume(ctx, w.DB, id)
	if err != nil {
		return fail(0, fmt.Errorf("load resume: %w", err))
	}

	text, err := w.resumeText(ctx, r)
	if err != nil {
		return fail(0, err)
	}

	parser := &parse.Parser{
		Provider:       w.Provider,
		MaxResumeChars: cfg.Parsing.MaxResumeChars,
		MaxTokens:      cfg.LLM.MaxTokens,
	}

	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	profile, tokens, err := parser.Parse(pctx, text)
	if err != nil {
		return fail(tokens, err)
	}

	if err := store.MarkResumeParsed(ctx, w.DB, id, profile, tokens); err != nil {
		log.Printf("[worker] resume=%d mark parsed: %v", id, err)
		return false
	}
	w.Hub.Publish(events.MakeEvent("", events.TypeResumeParsed, 1, map[string]any{"id": id, "tokens": tokens}))

	w.scoreResumeApplications(ctx, cfg, id)
	return true
}

func (w *Worker) resumeText(ctx context.Context, r domain.Resume) (string, error) {
	if r.FileKey == "" {
		return "", fmt.Errorf("resume has no file")
	}
	b, ct, err := store.LoadFile(ctx, w.DB, r.FileKey)
	if err != nil {
		return "", fmt.Errorf("load resume file: %w", err)
	}
	if !isTextContent(ct, b) {
		return "", fmt.Errorf("unsupported resume content type %q", ct)
	}
	return string(b), nil
}

func isTextContent(ct string, b []byte) bool {
	switch {
	case ct == "":
		return false
	case strings.HasPrefix(ct, "text/"):
		return true
	case ct == "application/octet-stream":
		// Generic upload type says nothing about the bytes; sniff them
		// so binary files fail with a clear cause instead of reaching
		// the LLM prompt.
		return strings.HasPrefix(http.DetectContentType(b), "text/")
	default:
		return false
	}
}

// scoreResumeApplications recomputes every application of a freshly parsed
// resume. Failures are logged per application; one bad job row does not stop
// the rest.
func (w *Worker) scoreResumeApplications(ctx context.Context, cfg config.Config, resumeID int64) {
	apps, err := store.ListApplications(ctx, w.DB, 0, resumeID, 0)
	if err != nil {
		log.Printf("[worker] resume=%d list applications: %v", resumeID, err)
		return
	}
	for _, a := range apps {
		if _, err := ScoreApplication(ctx, w.DB, cfg, w.Hub, a.ID); err != nil {
			log.Printf("[worker] application=%d score: %v", a.ID, err)
		}
	}
}

// ScoreApplication loads an application's job and parsed profile, computes
// the deterministic match score and persists it. Shared by the worker and
// the rescore endpoint.
func ScoreApplication(ctx context.Context, db *sql.DB, cfg config.Config, hub *events.Hub, appID int64) (domain.Application, error) {
	a, err := store.GetApplication(ctx, db, appID)
	if err != nil {
		return a, err
	}

	r, err := store.GetResume(ctx, db, a.ResumeID)
	if err != nil {
		return a, fmt.Errorf("load resume: %w", err)
	}
	if r.Profile == nil {
		return a, fmt.Errorf("resume %d is not parsed yet", r.ID)
	}

	j, err := store.GetJob(ctx, db, a.JobID)
	if err != nil {
		return a, fmt.Errorf("load job: %w", err)
	}

	score, bd := match.ScoreProfile(r.Profile, j, WeightsFromConfig(cfg))
	if err := store.SetApplicationScore(ctx, db, a.ID, score, bd); err != nil {
		return a, err
	}

	a.Score = score
	a.Breakdown = bd
	a.Status = domain.AppScored

	if hub != nil {
		hub.Publish(events.MakeEvent("", events.TypeApplicationScored, 1, map[string]any{
			"id": a.ID, "job_id": a.JobID, "resume_id": a.ResumeID, "score": score,
		}))
	}
	return a, nil
}

func WeightsFromConfig(cfg config.Config) match.Weights {
	return match.Weights{
		Mandatory:           cfg.Scoring.MandatoryWeight,
		NiceToHave:          cfg.Scoring.NiceToHaveWeight,
		Experience:          cfg.Scoring.ExperienceWeight,
		Title:               cfg.Scoring.TitleWeight,
		MissingMandatoryCap: cfg.Scoring.MissingMandatoryCap,
		Aliases:             cfg.Scoring.SkillAliases,
	}
}

func (w *Worker) setStatus(mut func(*ParseStatus)) {
	st := ParseStatus{}
	if cur := w.Status.Load(); cur != nil {
		st = cur.(ParseStatus)
	}
	mut(&st)
	w.Status.Store(st)
}
