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

type ListJobsOpts struct {
	Sort   string // created | company | title
	Order  string // asc | desc
	Window string // 24h | 7d | all
	Status string // open | closed | ""
	Limit  int
}

func InsertJob(ctx context.Context, db *sql.DB, j domain.Job) (int64, error) {
	skillsB, err := json.Marshal(j.Skills)
	if err != nil {
		return 0, fmt.Errorf("marshal skills: %w", err)
	}
	if j.Status == "" {
		j.Status = "open"
	}
	if j.CreatedAt == "" {
		j.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	res, err := db.ExecContext(ctx, `
INSERT INTO jobs(title, company, location, work_mode, description, skills, min_years, max_years, status, source_url, created_at)
VALUES(?,?,?,?,?,?,?,?,?,?,?);`,
		j.Title, j.Company, j.Location, j.WorkMode, j.Description,
		string(skillsB), j.MinYears, j.MaxYears, j.Status, j.SourceURL, j.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return res.LastInsertId()
}

func GetJob(ctx context.Context, db *sql.DB, id int64) (domain.Job, error) {
	row := db.QueryRowContext(ctx, `
SELECT id, title, company, location, work_mode, description, skills, min_years, max_years, status, source_url, created_at
FROM jobs WHERE id = ?;`, id)
	return scanJob(row)
}

func UpdateJob(ctx context.Context, db *sql.DB, j domain.Job) error {
	skillsB, err := json.Marshal(j.Skills)
	if err != nil {
		return fmt.Errorf("marshal skills: %w", err)
	}
	res, err := db.ExecContext(ctx, `
UPDATE jobs
SET title = ?, company = ?, location = ?, work_mode = ?, description = ?,
    skills = ?, min_years = ?, max_years = ?, status = ?, source_url = ?
WHERE id = ?;`,
		j.Title, j.Company, j.Location, j.WorkMode, j.Description,
		string(skillsB), j.MinYears, j.MaxYears, j.Status, j.SourceURL, j.ID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func DeleteJob(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	return err
}

func ListJobs(ctx context.Context, db *sql.DB, opts ListJobsOpts) ([]domain.Job, error) {
	// defaults
	if opts.Sort == "" {
		opts.Sort = "created"
	}
	if opts.Window == "" {
		opts.Window = "all"
	}
	if opts.Limit <= 0 || opts.Limit > 2000 {
		opts.Limit = 500
	}

	// whitelist sort columns (prevents SQL injection)
	sortCol := map[string]string{
		"created": "created_at",
		"company": "company",
		"title":   "title",
	}[opts.Sort]
	if sortCol == "" {
		sortCol = "created_at"
	}
	switch opts.Sort {
	case "created":
		opts.Order = "desc"
	case "company", "title":
		opts.Order = "asc"
	}

	where := ""
	args := []any{}
	switch opts.Window {
	case "24h":
		where = "WHERE created_at >= datetime('now','-24 hours')"
	case "7d":
		where = "WHERE created_at >= datetime('now','-7 days')"
	case "all":
		// no filter
	default:
		where = "WHERE created_at >= datetime('now','-7 days')"
	}
	if opts.Status != "" {
		if where == "" {
			where = "WHERE status = ?"
		} else {
			where += " AND status = ?"
		}
		args = append(args, opts.Status)
	}
	args = append(args, opts.Limit)

	query := fmt.Sprintf(`
SELECT id, title, company, location, work_mode, description, skills, min_years, max_years, status, source_url, created_at
FROM jobs
%s
ORDER BY %s %s
LIMIT ?;
`, where, sortCol, opts.Order)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (domain.Job, error) {
	var j domain.Job
	var skillsJSON string
	err := r.Scan(
		&j.ID,
		&j.Title,
		&j.Company,
		&j.Location,
		&j.WorkMode,
		&j.Description,
		&skillsJSON,
		&j.MinYears,
		&j.MaxYears,
		&j.Status,
		&j.SourceURL,
		&j.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return j, ErrNotFound
	}
	if err != nil {
		return j, err
	}
	_ = json.Unmarshal([]byte(skillsJSON), &j.Skills)
	return j, nil
}
