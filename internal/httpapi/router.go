package httpapi

import "net/http"

// NewMux returns the raw mux; main() wraps it in the middleware chain.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Jobs
	jh := JobsHandler{DB: d.DB, Hub: d.Hub, ImportJob: d.ImportJob}
	mux.HandleFunc("/jobs", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  jh.List,
		http.MethodPost: jh.Create,
	}))
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    jh.GetByPath,
		http.MethodPut:    jh.UpdateByPath,
		http.MethodDelete: jh.DeleteByPath,
	}))
	mux.HandleFunc("/jobs/import", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: jh.Import,
	}))

	// Resumes
	rh := ResumesHandler{DB: d.DB, Hub: d.Hub, RunParseOnce: d.RunParseOnce, ParseStatus: d.ParseStatus}
	mux.HandleFunc("/resumes", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  rh.List,
		http.MethodPost: rh.Upload,
	}))
	mux.HandleFunc("/resumes/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    rh.GetByPath, // also serves /resumes/{id}/file
		http.MethodPost:   rh.ParseByPath,
		http.MethodDelete: rh.DeleteByPath,
	}))
	mux.HandleFunc("/parse/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Status,
	}))

	// Applications
	ah := ApplicationsHandler{DB: d.DB, Hub: d.Hub, ScoreApplication: d.ScoreApplication}
	mux.HandleFunc("/applications", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:  ah.List,
		http.MethodPost: ah.Create,
	}))
	mux.HandleFunc("/applications/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    ah.GetByPath,
		http.MethodPost:   ah.ScoreByPath, // /applications/{id}/score and /applications/{id}/status
		http.MethodDelete: ah.DeleteByPath,
	}))

	// Intake
	ih := IntakeHandler{CfgVal: d.CfgVal, IntakeStatus: d.IntakeStatus, RunIntakeOnce: d.RunIntakeOnce}
	mux.HandleFunc("/intake/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ih.Status,
	}))
	mux.HandleFunc("/intake/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ih.Run,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/llm", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetLLMAPIKey,
	}))
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Maintenance
	dbh := DBHandler{DB: d.DB}
	mux.HandleFunc("/db/checkpoint", dbh.Checkpoint)

	// Health
	hh := HealthHandler{Hub: d.Hub}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	return mux
}
