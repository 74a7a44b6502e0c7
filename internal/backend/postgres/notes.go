package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"

	"notechat/internal/backend"
)

// Notes returns the user's notes, newest first.
func (s *Store) Notes(ctx context.Context, userID int64) ([]backend.Note, error) {
	s.logger.Debugf("Retrieving notes for user (id: %d)", userID)

	sql := `select id, user_id, title, content, created_at
			  from notes
			 where user_id = $1
			 order by created_at desc`

	rows, err := s.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []backend.Note
	for rows.Next() {
		var n backend.Note
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	return notes, rows.Err()
}

func (s *Store) CreateNote(ctx context.Context, n backend.Note) (backend.Note, error) {
	sql := `insert into notes (user_id, title, content, created_at)
			values ($1, $2, $3, now())
			returning id, created_at`

	row := n
	err := s.db.QueryRow(ctx, sql, n.UserID, n.Title, n.Content).Scan(&row.ID, &row.CreatedAt)
	if err != nil {
		return backend.Note{}, err
	}

	return row, nil
}

func (s *Store) UpdateNote(ctx context.Context, n backend.Note) (backend.Note, error) {
	sql := `update notes
			   set title = $2, content = $3
			 where id = $1
			returning id, user_id, title, content, created_at`

	var row backend.Note
	err := s.db.QueryRow(ctx, sql, n.ID, n.Title, n.Content).
		Scan(&row.ID, &row.UserID, &row.Title, &row.Content, &row.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return backend.Note{}, backend.ErrNoteNotFound
		}
		return backend.Note{}, err
	}

	return row, nil
}

func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, "delete from notes where id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return backend.ErrNoteNotFound
	}
	return nil
}
