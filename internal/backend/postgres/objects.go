package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"

	"notechat/internal/backend"
)

// Upload stores a blob under the given path and returns its public URL.
// Paths are unique; a second upload to the same path fails rather than
// overwriting.
func (s *Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	s.logger.Debugf("Uploading %d bytes to %s", len(data), path)

	sql := "insert into objects (path, data, content_type, created_at) values ($1, $2, $3, now())"
	_, err := s.db.Exec(ctx, sql, path, data, contentType)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return "", backend.ErrObjectExists
		}
		return "", err
	}

	return s.publicURL(path), nil
}

// publicURL joins the configured base URL and an object path, tolerating a
// trailing slash on the base.
func (s *Store) publicURL(path string) string {
	return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + path
}
