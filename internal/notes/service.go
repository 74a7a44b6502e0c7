// Package notes implements the personal note list: load, create, edit,
// delete. All persistence goes through the backend boundary.
package notes

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"notechat/internal/backend"
)

var ErrEmptyNote = errors.New("note has no title and no content")

type Service struct {
	logger  *zap.SugaredLogger
	querier backend.Querier
	mutator backend.Mutator
	self    backend.Session
}

func NewService(logger *zap.SugaredLogger, querier backend.Querier, mutator backend.Mutator, self backend.Session) *Service {
	return &Service{
		logger:  logger,
		querier: querier,
		mutator: mutator,
		self:    self,
	}
}

// List returns the user's notes, newest first.
func (s *Service) List(ctx context.Context) ([]backend.Note, error) {
	notes, err := s.querier.Notes(ctx, s.self.UserID)
	if err != nil {
		s.logger.Errorf("loading notes: %v", err)
		return nil, err
	}
	return notes, nil
}

// Create rejects an entirely empty note before any service call.
func (s *Service) Create(ctx context.Context, title, content string) (backend.Note, error) {
	if title == "" && content == "" {
		return backend.Note{}, ErrEmptyNote
	}

	note, err := s.mutator.CreateNote(ctx, backend.Note{
		UserID:  s.self.UserID,
		Title:   title,
		Content: content,
	})
	if err != nil {
		s.logger.Errorf("creating note: %v", err)
		return backend.Note{}, err
	}

	return note, nil
}

func (s *Service) Update(ctx context.Context, id int64, title, content string) (backend.Note, error) {
	if title == "" && content == "" {
		return backend.Note{}, ErrEmptyNote
	}

	note, err := s.mutator.UpdateNote(ctx, backend.Note{
		ID:      id,
		UserID:  s.self.UserID,
		Title:   title,
		Content: content,
	})
	if err != nil {
		s.logger.Errorf("updating note %d: %v", id, err)
		return backend.Note{}, err
	}

	return note, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.mutator.DeleteNote(ctx, id); err != nil {
		s.logger.Errorf("deleting note %d: %v", id, err)
		return err
	}
	return nil
}
