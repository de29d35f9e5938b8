package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hirepath-engine/internal/domain"
)

// ErrDuplicateApplication is returned when a resume is applied to the same
// job twice (unique index on job_id, resume_id).
var ErrDuplicateApplication = errors.New("application already exists")

func InsertApplication(ctx context.Context, db *sql.DB, a domain.Application) (int64, error) {
	if a.Status == "" {
		a.Status = domain.AppSubmitted
	}
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	res, err := db.ExecContext(ctx, `
INSERT INTO applications(job_id, resume_id, status, created_at)
VALUES(?,?,?,?);`,
		a.JobID, a.ResumeID, a.Status, a.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateApplication
		}
		return 0, fmt.Errorf("insert application: %w", err)
	}
	return res.LastInsertId()
}

func GetApplication(ctx context.Context, db *sql.DB, id int64) (domain.Application, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, job_id, resume_id, status, score, breakdown, created_at, scored_at
FROM applications WHERE id = ?;`, id)
	return scanApplication(row)
}

func DeleteApplication(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM applications WHERE id = ?;`, id)
	return err
}

// ListApplications filters by job and/or resume; zero means no filter.
// Scored rows come back highest score first, then newest.
func ListApplications(ctx context.Context, db *sql.DB, jobID, resumeID int64, limit int) ([]domain.Application, error) {
	if limit <= 0 || limit > 2000 {
		limit = 500
	}
	var conds []string
	var args []any
	if jobID > 0 {
		conds = append(conds, "job_id = ?")
		args = append(args, jobID)
	}
	if resumeID > 0 {
		conds = append(conds, "resume_id = ?")
		args = append(args, resumeID)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
SELECT id, job_id, resume_id, status, score, breakdown, created_at, scored_at
FROM applications
%s
ORDER BY score DESC, created_at DESC
LIMIT ?;`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func SetApplicationScore(ctx context.Context, db *sql.DB, id int64, score int, bd *domain.ScoreBreakdown) error {
	bdB, err := json.Marshal(bd)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	res, err := db.ExecContext(ctx, `
UPDATE applications
SET score = ?, breakdown = ?, status = ?, scored_at = ?
WHERE id = ?;`,
		score, string(bdB), domain.AppScored, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("set application score: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func SetApplicationStatus(ctx context.Context, db *sql.DB, id int64, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE applications SET status = ? WHERE id = ?;`, status, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanApplication(r rowScanner) (domain.Application, error) {
	var a domain.Application
	var bdJSON string
	err := r.Scan(
		&a.ID,
		&a.JobID,
		&a.ResumeID,
		&a.Status,
		&a.Score,
		&bdJSON,
		&a.CreatedAt,
		&a.ScoredAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	if bdJSON != "" {
		var bd domain.ScoreBreakdown
		if json.Unmarshal([]byte(bdJSON), &bd) == nil {
			a.Breakdown = &bd
		}
	}
	return a, nil
}
