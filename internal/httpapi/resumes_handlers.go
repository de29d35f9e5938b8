package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/events"
	"hirepath-engine/internal/store"
)

type ResumesHandler struct {
	DB           *sql.DB
	Hub          *events.Hub
	ParseStatus  *atomic.Value
	RunParseOnce func(ctx context.Context) (parsed, failed int, err error)
}

func (h ResumesHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	resumes, err := store.ListResumesByStatus(r.Context(), h.DB, q.Get("status"), limit)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	writeJSON(w, resumes)
}

// Upload accepts a multipart form: "file" plus optional candidate_name and
// candidate_email fields. The blob is stored content-addressed and the resume
// row starts in pending state for the worker to pick up.
func (h ResumesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(store.MaxFileBytes + 4096); err != nil {
		WriteError(w, r, 400, "invalid_form", err.Error())
		return
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		WriteError(w, r, 400, "missing_file", "multipart field \"file\" is required")
		return
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, store.MaxFileBytes+1))
	if err != nil {
		WriteError(w, r, 400, "read_file", err.Error())
		return
	}
	if len(b) == 0 {
		WriteError(w, r, 400, "empty_file", "uploaded file is empty")
		return
	}
	if len(b) > store.MaxFileBytes {
		WriteError(w, r, 413, "file_too_large", "resume file exceeds 1MiB")
		return
	}

	key, err := store.SaveFile(r.Context(), h.DB, b, hdr.Header.Get("Content-Type"))
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	id, err := store.InsertResume(r.Context(), h.DB, domain.Resume{
		CandidateName:  strings.TrimSpace(r.FormValue("candidate_name")),
		CandidateEmail: strings.TrimSpace(r.FormValue("candidate_email")),
		FileKey:        key,
		Source:         "upload",
	})
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	created, err := store.GetResume(r.Context(), h.DB, id)
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeResumeCreated, 1, map[string]any{"id": id}))
	WriteJSON(w, http.StatusCreated, created)
}

// GetByPath serves /resumes/{id} and /resumes/{id}/file.
func (h ResumesHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := resumeIDFromPath(w, r)
	if !ok {
		return
	}

	res, err := store.GetResume(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "resume not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	switch rest {
	case "":
		writeJSON(w, res)
	case "file":
		h.serveFile(w, r, res)
	default:
		WriteError(w, r, 404, "not_found", "unknown resume subresource")
	}
}

func (h ResumesHandler) serveFile(w http.ResponseWriter, r *http.Request, res domain.Resume) {
	if res.FileKey == "" {
		WriteError(w, r, 404, "not_found", "resume has no file")
		return
	}
	b, ct, err := store.LoadFile(r.Context(), h.DB, res.FileKey)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "file not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(b)
}

// ParseByPath handles POST /resumes/{id}/parse: requeue the resume and kick
// the worker without waiting for the next tick.
func (h ResumesHandler) ParseByPath(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := resumeIDFromPath(w, r)
	if !ok {
		return
	}
	if rest != "parse" {
		WriteError(w, r, 404, "not_found", "unknown resume subresource")
		return
	}

	if _, err := store.GetResume(r.Context(), h.DB, id); errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "resume not found")
		return
	} else if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	// The row exists, so a zero-row update means it is being parsed right now.
	err := store.ResetResumeForParse(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 409, "parse_in_progress", "resume is already being parsed")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	go func() {
		if _, _, err := h.RunParseOnce(context.Background()); err != nil {
			log.Printf("level=error msg=\"parse run\" err=%q", err)
		}
	}()

	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h ResumesHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id, rest, ok := resumeIDFromPath(w, r)
	if !ok || rest != "" {
		if ok {
			WriteError(w, r, 404, "not_found", "unknown resume subresource")
		}
		return
	}

	res, err := store.GetResume(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, 404, "not_found", "resume not found")
		return
	}
	if err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}

	if err := store.DeleteResume(r.Context(), h.DB, id); err != nil {
		WriteError(w, r, 500, "db_error", err.Error())
		return
	}
	// Blob garbage collection; other resumes may still reference it.
	if err := store.DeleteFileIfUnreferenced(r.Context(), h.DB, res.FileKey); err != nil {
		log.Printf("level=warn msg=\"file gc\" key=%s err=%q", res.FileKey, err)
	}

	writeJSON(w, map[string]any{"ok": true, "id": id})
}

func (h ResumesHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.ParseStatus.Load())
}

// resumeIDFromPath splits /resumes/{id}[/rest] into id and the trailing
// subresource name.
func resumeIDFromPath(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/resumes/")
	idStr, rest, _ := strings.Cut(path, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, 400, "invalid_id", "invalid resume id")
		return 0, "", false
	}
	return id, rest, true
}
