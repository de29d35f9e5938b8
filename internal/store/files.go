package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Resume files are stored content-addressed in the files table, so uploading
// the same document twice reuses the existing blob.

const MaxFileBytes = 1 << 20 // 1MiB

func FileKey(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func SaveFile(ctx context.Context, db *sql.DB, b []byte, contentType string) (key string, err error) {
	if len(b) == 0 {
		return "", errors.New("empty file")
	}
	if len(b) > MaxFileBytes {
		return "", errors.New("file too large")
	}

	ct := strings.TrimSpace(contentType)
	if ct == "" {
		ct = http.DetectContentType(b)
	}

	key = FileKey(b)

	// Already stored? Skip the write.
	var exists int
	e := db.QueryRowContext(ctx, `SELECT 1 FROM files WHERE key = ? LIMIT 1;`, key).Scan(&exists)
	if e == nil {
		return key, nil
	}
	if e != sql.ErrNoRows {
		return "", e
	}

	_, err = db.ExecContext(ctx, `
INSERT OR REPLACE INTO files(key, content_type, bytes, created_at)
VALUES(?,?,?,?);`,
		key, ct, b, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return key, nil
}

func LoadFile(ctx context.Context, db *sql.DB, key string) (b []byte, contentType string, err error) {
	row := db.QueryRowContext(ctx, `SELECT bytes, content_type FROM files WHERE key = ?;`, key)
	if err := row.Scan(&b, &contentType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return b, contentType, nil
}

// DeleteFileIfUnreferenced drops a blob once no resume row points at it.
func DeleteFileIfUnreferenced(ctx context.Context, db *sql.DB, key string) error {
	if key == "" {
		return nil
	}
	var refs int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resumes WHERE file_key = ?;`, key).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, `DELETE FROM files WHERE key = ?;`, key)
	return err
}
