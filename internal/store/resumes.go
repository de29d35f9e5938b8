package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hirepath-engine/internal/domain"
)

func InsertResume(ctx context.Context, db *sql.DB, r domain.Resume) (int64, error) {
	if r.Status == "" {
		r.Status = domain.ResumePending
	}
	if r.Source == "" {
		r.Source = "upload"
	}
	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	res, err := db.ExecContext(ctx, `
INSERT INTO resumes(candidate_name, candidate_email, file_key, source, status, created_at)
VALUES(?,?,?,?,?,?);`,
		r.CandidateName, r.CandidateEmail, r.FileKey, r.Source, r.Status, r.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert resume: %w", err)
	}
	return res.LastInsertId()
}

func GetResume(ctx context.Context, db *sql.DB, id int64) (domain.Resume, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, candidate_name, candidate_email, file_key, source, status, parse_error, tokens_used, profile, created_at, parsed_at
FROM resumes WHERE id = ?;`, id)
	return scanResume(row)
}

func DeleteResume(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM resumes WHERE id = ?;`, id)
	return err
}

// ListResumesByStatus returns resumes in a given status, oldest first, so the
// worker drains the backlog in arrival order. Empty status lists everything.
func ListResumesByStatus(ctx context.Context, db *sql.DB, status string, limit int) ([]domain.Resume, error) {
	if limit <= 0 || limit > 2000 {
		limit = 200
	}
	where := ""
	args := []any{}
	if status != "" {
		where = "WHERE status = ?"
		args = append(args, status)
	}
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, candidate_name, candidate_email, file_key, source, status, parse_error, tokens_used, profile, created_at, parsed_at
FROM resumes
%s
ORDER BY created_at ASC, id ASC
LIMIT ?;`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Resume
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkResumeParsing flips pending -> parsing and reports whether this call won
// the claim. Keeps a manual trigger and the worker from double-parsing a row.
func MarkResumeParsing(ctx context.Context, db *sql.DB, id int64) (claimed bool, err error) {
	res, err := db.ExecContext(ctx, `
UPDATE resumes SET status = ?, parse_error = ''
WHERE id = ? AND status = ?;`,
		domain.ResumeParsing, id, domain.ResumePending)
	if err != nil {
		return false, fmt.Errorf("mark parsing: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func MarkResumeParsed(ctx context.Context, db *sql.DB, id int64, profile *domain.Profile, tokensUsed int64) error {
	profB, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	_, err = db.ExecContext(ctx, `
UPDATE resumes
SET status = ?, profile = ?, tokens_used = tokens_used + ?, parse_error = '', parsed_at = ?
WHERE id = ?;`,
		domain.ResumeParsed, string(profB), tokensUsed, time.Now().UTC().Format(time.RFC3339), id)
	return err
}

func MarkResumeFailed(ctx context.Context, db *sql.DB, id int64, tokensUsed int64, cause string) error {
	_, err := db.ExecContext(ctx, `
UPDATE resumes
SET status = ?, parse_error = ?, tokens_used = tokens_used + ?
WHERE id = ?;`,
		domain.ResumeFailed, cause, tokensUsed, id)
	return err
}

// ResetResumeForParse puts a parsed or failed resume back in the pending queue.
func ResetResumeForParse(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `
UPDATE resumes SET status = ?, parse_error = ''
WHERE id = ? AND status != ?;`,
		domain.ResumePending, id, domain.ResumeParsing)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanResume(r rowScanner) (domain.Resume, error) {
	var res domain.Resume
	var profJSON string
	err := r.Scan(
		&res.ID,
		&res.CandidateName,
		&res.CandidateEmail,
		&res.FileKey,
		&res.Source,
		&res.Status,
		&res.ParseError,
		&res.TokensUsed,
		&profJSON,
		&res.CreatedAt,
		&res.ParsedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return res, ErrNotFound
	}
	if err != nil {
		return res, err
	}
	if profJSON != "" {
		var p domain.Profile
		if json.Unmarshal([]byte(profJSON), &p) == nil {
			res.Profile = &p
		}
	}
	return res, nil
}
