package httpapi

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"hirepath-engine/internal/config"
)

type IntakeHandler struct {
	CfgVal        *atomic.Value
	IntakeStatus  *atomic.Value
	RunIntakeOnce func(ctx context.Context) (added int, err error)
}

func (h IntakeHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.IntakeStatus.Load())
}

// Run kicks one mailbox sweep in the background. A second POST while a sweep
// is in flight gets a 409.
func (h IntakeHandler) Run(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	if !cfg.Intake.Enabled {
		WriteError(w, r, 409, "intake_disabled", "email intake is disabled in config")
		return
	}

	st, _ := h.IntakeStatus.Load().(IntakeStatus)
	if st.Running {
		WriteError(w, r, 409, "intake_running", "intake sweep already running")
		return
	}
	st.Running = true
	st.LastRunAt = time.Now().UTC().Format(time.RFC3339)
	h.IntakeStatus.Store(st)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		added, err := h.RunIntakeOnce(ctx)

		st, _ := h.IntakeStatus.Load().(IntakeStatus)
		st.Running = false
		st.LastAdded = added
		if err != nil {
			st.LastError = err.Error()
			log.Printf("level=error msg=\"intake run\" err=%q", err)
		} else {
			st.LastError = ""
			st.LastOkAt = time.Now().UTC().Format(time.RFC3339)
			log.Printf("level=info msg=\"intake run\" added=%d", added)
		}
		h.IntakeStatus.Store(st)
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "started": true})
}
