package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/events"
	"hirepath-engine/internal/store"
)

type ApplicationsHandler struct {
	DB               *sql.DB
	Hub              *events.Hub
	ScoreApplication func(ctx context.Context, appID int64) (domain.Application, error)
}

func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobID, _ := strconv.ParseInt(q.Get("job_id"), 10, 64)
	resumeID, _ := strconv.ParseInt(q.Get("resume_id"), 10, 64)
	limit, _ := strconv.Atoi(q.Get("limit"))

	apps, err := store.ListApplications(r.Context(), h.DB, jobID, resumeID, limit)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, apps)
}

func (h ApplicationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		JobID    int64 `json:"job_id"`
		ResumeID int64 `json:"resume_id"`
	}
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	if in.JobID <= 0 || in.ResumeID <= 0 {
		WriteError(w, r, 400, "invalid_body", "job_id and resume_id are required")
		return
	}

	job, err := store.GetJob(r.Context(), h.DB, in.JobID)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "job not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	if job.Status == domain.JobClosed {
		WriteError(w, r, 409, "job_closed", "cannot apply to a closed job")
		return
	}

	res, err := store.GetResume(r.Context(), h.DB, in.ResumeID)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "resume not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	id, err := store.InsertApplication(r.Context(), h.DB, domain.Application{
		JobID:    in.JobID,
		ResumeID: in.ResumeID,
	})
	if errors.Is(err, store.ErrDuplicateApplication) {
		WriteError(w, r, 409, "duplicate_application", "resume already applied to this job")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeApplicationCreated, 1, map[string]any{
		"id": id, "job_id": in.JobID, "resume_id": in.ResumeID,
	}))

	// Score immediately when the resume already has a parsed profile;
	// otherwise the worker scores it after parsing.
	if res.Profile != nil {
		app, err := h.ScoreApplication(r.Context(), id)
		if err != nil {
			log.Printf("level=warn msg=\"score on create\" app_id=%d err=%q", id, err)
		} else {
			WriteJSON(w, http.StatusCreated, app)
			return
		}
	}

	created, err := store.GetApplication(r.Context(), h.DB, id)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

func (h ApplicationsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := appIDFromPath(w, r)
	if !ok {
		return
	}
	if rest != "" {
		WriteError(w, r, 404, "not_found", "unknown application subresource")
		return
	}

	app, err := store.GetApplication(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "application not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, app)
}

// ScoreByPath handles POST /applications/{id}/score: recompute the match
// score from the stored profile and job.
func (h ApplicationsHandler) ScoreByPath(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := appIDFromPath(w, r)
	if !ok {
		return
	}
	switch rest {
	case "score":
		app, err := h.ScoreApplication(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, r, 404, "not_found", "application not found")
			return
		}
		if err != nil {
			WriteError(w, r, 422, "score_failed", err.Error())
			return
		}
		writeJSON(w, app)
	case "status":
		h.setStatus(w, r, id)
	default:
		WriteError(w, r, 404, "not_found", "unknown application subresource")
	}
}

// setStatus handles POST /applications/{id}/status for the manual
// shortlist/reject decisions.
func (h ApplicationsHandler) setStatus(w http.ResponseWriter, r *http.Request, id int64) {
	var in struct {
		Status string `json:"status"`
	}
	if err := decodeStrict(r, &in); err != nil {
		WriteError(w, r, 400, "invalid_json", err.Error())
		return
	}
	switch in.Status {
	case domain.AppShortlisted, domain.AppRejected, domain.AppSubmitted:
	default:
		WriteError(w, r, 400, "invalid_status", "status must be submitted, shortlisted or rejected")
		return
	}

	err := store.SetApplicationStatus(r.Context(), h.DB, id, in.Status)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "application not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	app, err := store.GetApplication(r.Context(), h.DB, id)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, app)
}

func (h ApplicationsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := appIDFromPath(w, r)
	if !ok {
		return
	}
	if rest != "" {
		WriteError(w, r, 404, "not_found", "unknown application subresource")
		return
	}

	err := store.DeleteApplication(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "application not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func appIDFromPath(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/applications/")
	idStr, rest, _ := strings.Cut(path, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, 400, "invalid_id", "invalid application id")
		return 0, "", false
	}
	return id, rest, true
}
