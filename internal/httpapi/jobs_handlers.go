package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/events"
	"hirepath-engine/internal/store"
)

type JobsHandler struct {
	DB        *sql.DB
	Hub       *events.Hub
	ImportJob func(ctx context.Context, url string) (domain.Job, error)
}

func (h JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	jobs, err := store.ListJobs(r.Context(), h.DB, store.ListJobsOpts{
		Sort:   q.Get("sort"),
		Window: q.Get("window"),
		Status: q.Get("status"),
		Limit:  limit,
	})
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, jobs)
}

func (h JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var j domain.Job
	if err := decodeStrict(r, &j); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	if msg := validateJob(j); msg != "" {
		WriteError(w, r, 400, "invalid_job", msg)
		return
	}

	id, err := store.InsertJob(r.Context(), h.DB, j)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	created, err := store.GetJob(r.Context(), h.DB, id)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeJobCreated, 1, map[string]any{"id": id}))
	WriteJSON(w, http.StatusCreated, created)
}

func (h JobsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}
	j, err := store.GetJob(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "job not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, j)
}

func (h JobsHandler) UpdateByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}

	var j domain.Job
	if err := decodeStrict(r, &j); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	if msg := validateJob(j); msg != "" {
		WriteError(w, r, 400, "invalid_job", msg)
		return
	}
	j.ID = id

	err := store.UpdateJob(r.Context(), h.DB, j)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "job not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	updated, err := store.GetJob(r.Context(), h.DB, id)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, updated)
}

func (h JobsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDFromPath(w, r)
	if !ok {
		return
	}

	if err := store.DeleteJob(r.Context(), h.DB, id); err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeJobDeleted, 1, map[string]any{"id": id}))
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

type importJobReq struct {
	URL string `json:"url"`
}

// Import fetches a posting URL, extracts job fields with the LLM and stores
// the result as a new open job.
func (h JobsHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importJobReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		WriteError(w, r, 400, "invalid_url", "url is required")
		return
	}

	j, err := h.ImportJob(r.Context(), req.URL)
	if err != nil {
		WriteError(w, r, 502, "import_failed", err.Error())
		return
	}

	id, err := store.InsertJob(r.Context(), h.DB, j)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	created, err := store.GetJob(r.Context(), h.DB, id)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeJobCreated, 1, map[string]any{"id": id}))
	WriteJSON(w, http.StatusCreated, created)
}

func validateJob(j domain.Job) string {
	if strings.TrimSpace(j.Title) == "" {
		return "title is required"
	}
	if strings.TrimSpace(j.Company) == "" {
		return "company is required"
	}
	if j.MinYears < 0 || j.MaxYears < 0 {
		return "experience bounds must be >= 0"
	}
	if j.MaxYears > 0 && j.MinYears > j.MaxYears {
		return "minYears must not exceed maxYears"
	}
	for i, s := range j.Skills {
		if strings.TrimSpace(s.Name) == "" {
			return "skills[" + strconv.Itoa(i) + "].name is required"
		}
	}
	switch j.Status {
	case "", "open", "closed":
	default:
		return "status must be open or closed"
	}
	return ""
}

func jobIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := strings.TrimPrefix(r.URL.Path, "/jobs/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, 400, "invalid_id", "invalid job id")
		return 0, false
	}
	return id, true
}
