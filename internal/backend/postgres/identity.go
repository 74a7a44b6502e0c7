package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"notechat/internal/backend"
)

// SignUp registers a profile and returns a signed session for it.
func (s *Store) SignUp(ctx context.Context, email, username, password string) (backend.Session, error) {
	s.logger.Debugf("Signing up %s", email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return backend.Session{}, err
	}

	var id int64
	sql := "insert into profiles (username, email, password_hash, created_at) values ($1, $2, $3, now()) returning id"
	err = s.db.QueryRow(ctx, sql, username, email, hash).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return backend.Session{}, backend.ErrEmailTaken
		}
		return backend.Session{}, err
	}

	return s.session(id, email, username)
}

// SignIn checks the credentials against the stored hash and returns a signed
// session.
func (s *Store) SignIn(ctx context.Context, email, password string) (backend.Session, error) {
	s.logger.Debugf("Signing in %s", email)

	var (
		id       int64
		username string
		hash     []byte
	)
	sql := "select id, trim(username), password_hash from profiles where email = $1"
	err := s.db.QueryRow(ctx, sql, email).Scan(&id, &username, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return backend.Session{}, backend.ErrInvalidCredentials
		}
		return backend.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return backend.Session{}, backend.ErrInvalidCredentials
	}

	return s.session(id, email, username)
}

// SignOut ends the session. Tokens are stateless, so there is nothing to
// revoke server-side; the session value simply must not be reused.
func (s *Store) SignOut(_ context.Context, sess backend.Session) error {
	s.logger.Debugf("Signed out user %d", sess.UserID)
	return nil
}

func (s *Store) session(id int64, email, username string) (backend.Session, error) {
	claims := jwt.MapClaims{
		"sub":   id,
		"email": email,
		"exp":   time.Now().Add(s.cfg.TokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return backend.Session{}, err
	}

	return backend.Session{
		UserID:   id,
		Email:    email,
		Username: username,
		Token:    token,
	}, nil
}
