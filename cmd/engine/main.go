package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"hirepath-engine/internal/config"
	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/events"
	"hirepath-engine/internal/httpapi"
	"hirepath-engine/internal/ingest"
	"hirepath-engine/internal/intake"
	"hirepath-engine/internal/llm"
	"hirepath-engine/internal/scheduler"
	"hirepath-engine/internal/secrets"
	"hirepath-engine/internal/store"
	"hirepath-engine/internal/worker"
)

func main() {
	// Engine data dir: use env if provided (desktop shell can pass one),
	// else local folder.
	dataDir := os.Getenv("HIREPATH_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Single instance per data dir; a second engine on the same SQLite file
	// would fight over the write lock anyway.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock failed: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance is already running in %s", dataDir)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return config.Config{}, err
		}
		aliasesPath := filepath.Join(dataDir, "aliases.yml")
		if err := config.OverlayAliases(&cfg, aliasesPath); err != nil {
			log.Printf("level=warn msg=\"aliases overlay\" path=%s err=%q", aliasesPath, err)
		}
		normalized, vr := config.NormalizeAndValidate(cfg)
		for _, w := range vr.Warnings {
			log.Printf("level=warn msg=\"config\" warn=%q", w)
		}
		if !vr.OK() {
			return config.Config{}, fmt.Errorf("invalid config: %v", vr.Errors)
		}
		return normalized, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "hirepath.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()

	// LLM provider chain: budget guard over retries over the HTTP client.
	// Without an API key every parse fails fast and rows stay retryable.
	budget := llm.NewTokenBudget(cfg.LLM.DailyTokenBudget)
	provider := buildProvider(cfg, budget)

	var parseStatus atomic.Value
	parseStatus.Store(worker.ParseStatus{})
	wk := &worker.Worker{
		DB:       db.Pool,
		CfgVal:   &cfgVal,
		Hub:      hub,
		Provider: provider,
		Budget:   budget,
		Status:   &parseStatus,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wk.Start(ctx)

	var intakeStatus atomic.Value
	intakeStatus.Store(httpapi.IntakeStatus{})
	runIntake := func(ctx context.Context) (int, error) {
		cur := cfgVal.Load().(config.Config)
		pw, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cur))
		if err != nil {
			return 0, fmt.Errorf("imap password: %w", err)
		}
		return intake.RunOnce(ctx, db.Pool, cur, pw, func(id int64) {
			hub.Publish(events.MakeEvent("", events.TypeResumeCreated, 1, map[string]any{"id": id}))
		})
	}
	if cfg.Intake.Enabled {
		go scheduler.Every(ctx, 10*time.Minute, "intake", func(ctx context.Context) error {
			added, err := runIntake(ctx)
			if err != nil {
				return err
			}
			if added > 0 {
				log.Printf("[intake] added=%d", added)
			}
			return nil
		})
	}

	limiter := ingest.NewHostLimiter(cfg.Ingest.RequestsPerSec, cfg.Ingest.Burst)
	importer := ingest.NewImporter(provider, limiter, cfg.Ingest.MaxPageBytes, cfg.LLM.MaxTokens, cfg.Ingest.AllowedSchemes)

	mux := httpapi.NewMux(httpapi.Deps{
		DB:           db.Pool,
		Hub:          hub,
		CfgVal:       &cfgVal,
		ParseStatus:  &parseStatus,
		IntakeStatus: &intakeStatus,
		UserCfgPath:  userCfgPath,
		LoadCfg:      loadCfg,
		RunParseOnce: wk.RunOnce,
		ScoreApplication: func(ctx context.Context, appID int64) (domain.Application, error) {
			cur := cfgVal.Load().(config.Config)
			return worker.ScoreApplication(ctx, db.Pool, cur, hub, appID)
		},
		RunIntakeOnce: runIntake,
		ImportJob:     importer.Import,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)

	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog, httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Printf("engine stopped")
}

func buildProvider(cfg config.Config, budget *llm.TokenBudget) llm.Provider {
	key, err := secrets.GetLLMAPIKey()
	if err != nil || key == "" {
		log.Printf("level=warn msg=\"no llm api key, parsing disabled until one is set\"")
		return llm.NopProvider{}
	}

	client := &http.Client{Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second}
	base := llm.NewOpenAIProvider(cfg.LLM.BaseURL, key, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.RequestsPerMinute, client)
	retried := &llm.RetryProvider{Inner: base, MaxRetries: cfg.LLM.MaxRetries, BaseDelay: time.Second}
	return &llm.BudgetProvider{Inner: retried, Budget: budget}
}
