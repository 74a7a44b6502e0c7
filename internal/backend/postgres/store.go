// Package postgres implements the backend boundary on top of a Postgres
// database reached through pgx.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"notechat/internal/backend"
	"notechat/internal/backend/postgres/zapadapter"
)

// Store implements backend.Querier, backend.Mutator, backend.ObjectStore and
// backend.Identity over one pgx connection pool.
type Store struct {
	logger *zap.SugaredLogger
	db     *pgxpool.Pool
	cfg    Config
}

// NewStore sets the provided logger via zapadapter on a pgxpool.Pool and
// returns a Store instance.
func NewStore(ctx context.Context, logger *zap.SugaredLogger, cfg Config, opts ...Option) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	poolConfig.ConnConfig.Logger = zapadapter.NewLogger(logger.Desugar())

	for _, opt := range opts {
		opt.apply(poolConfig)
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	return &Store{
		logger: logger,
		db:     pool,
		cfg:    cfg,
	}, nil
}

func (s *Store) Close() {
	s.db.Close()
}

const messageColumns = `messages.id,
	   messages.temp_id,
	   messages.sender,
	   messages.sender_email,
	   messages.receiver,
	   messages.group_id,
	   messages.text,
	   messages.file_url,
	   messages.file_type,
	   messages.created_at`

// Messages returns the full history of one conversation, sorted by message
// creation time from earliest to latest.
func (s *Store) Messages(ctx context.Context, c backend.Conversation) ([]backend.Message, error) {
	s.logger.Debugf("Retrieving messages for conversation (self: %d, peer: %d, group: %d)", c.Self, c.Peer, c.Group)

	var (
		rows pgx.Rows
		err  error
	)
	if c.Group != 0 {
		sql := `select ` + messageColumns + `
				  from messages
				 where group_id = $1
				 order by created_at asc`
		rows, err = s.db.Query(ctx, sql, c.Group)
	} else {
		sql := `select ` + messageColumns + `
				  from messages
				 where (sender = $1 and receiver = $2)
					or (sender = $2 and receiver = $1)
				 order by created_at asc`
		rows, err = s.db.Query(ctx, sql, c.Self, c.Peer)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []backend.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	s.logger.Debugf("Retrieved %d messages", len(messages))

	return messages, nil
}

// InsertMessage persists one message and returns the authoritative row with
// its assigned id.
func (s *Store) InsertMessage(ctx context.Context, m backend.Message) (backend.Message, error) {
	s.logger.Debugf("Creating message from user (id: %d), temp id %s", m.Sender, m.TempID)

	sql := `insert into messages (temp_id, sender, sender_email, receiver, group_id, text, file_url, file_type, created_at)
			values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			returning id`

	row := m
	err := s.db.QueryRow(ctx, sql,
		nullText(m.TempID),
		m.Sender,
		nullText(m.SenderEmail),
		nullInt8(m.Receiver),
		nullInt8(m.GroupID),
		nullText(m.Text),
		nullText(m.FileURL),
		nullText(m.FileType),
		m.CreatedAt,
	).Scan(&row.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			switch pgErr.ConstraintName {
			case "messages_receiver_fkey":
				return backend.Message{}, ErrMessageBadReceiver
			case "messages_group_id_fkey":
				return backend.Message{}, ErrMessageBadGroup
			}
		}
		return backend.Message{}, err
	}

	return row, nil
}

// Profiles returns every registered profile.
func (s *Store) Profiles(ctx context.Context) ([]backend.Profile, error) {
	sql := `select id, trim(username), email, created_at from profiles order by id`

	rows, err := s.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []backend.Profile
	for rows.Next() {
		var p backend.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// scanMessage reads one message row, folding nullable columns into the
// zero-value conventions of backend.Message.
func scanMessage(rows pgx.Rows) (backend.Message, error) {
	var (
		m         backend.Message
		tempID    pgtype.Text
		email     pgtype.Text
		receiver  pgtype.Int8
		groupID   pgtype.Int8
		text      pgtype.Text
		fileURL   pgtype.Text
		fileType  pgtype.Text
		createdAt time.Time
	)

	err := rows.Scan(&m.ID, &tempID, &m.Sender, &email, &receiver, &groupID, &text, &fileURL, &fileType, &createdAt)
	if err != nil {
		return backend.Message{}, err
	}

	m.TempID = textValue(tempID)
	m.SenderEmail = textValue(email)
	m.Receiver = int8Value(receiver)
	m.GroupID = int8Value(groupID)
	m.Text = textValue(text)
	m.FileURL = textValue(fileURL)
	m.FileType = textValue(fileType)
	m.CreatedAt = createdAt

	return m, nil
}

func textValue(t pgtype.Text) string {
	if t.Status != pgtype.Present {
		return ""
	}
	return t.String
}

func int8Value(i pgtype.Int8) int64 {
	if i.Status != pgtype.Present {
		return 0
	}
	return i.Int
}

func nullText(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt8(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
