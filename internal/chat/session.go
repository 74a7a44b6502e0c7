// Package chat implements the client-side conversation core: the visible
// message sequence, the optimistic send pipeline, and routing of rows pushed
// by the realtime feed into either the sequence or a notification.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"go.uber.org/zap"

	"notechat/internal/backend"
)

var (
	ErrEmptyMessage   = errors.New("message has no text and no attachment")
	ErrNoConversation = errors.New("no conversation selected")
)

// Notification is raised for messages that arrived outside the conversation
// currently on screen, and for failed sends.
type Notification struct {
	Source  string
	Preview string
}

// SendRequest is one user-composed message: text, an attachment, or both.
type SendRequest struct {
	Text string
	File *FileUpload
}

type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Services groups the backend capabilities a Session needs.
type Services struct {
	Querier backend.Querier
	Mutator backend.Mutator
	Objects backend.ObjectStore
	Feed    backend.Feed
}

// Session drives one signed-in user's chat view. One mutex serializes every
// transition of the store and the active target; persist and upload calls run
// outside it so a slow send never stalls incoming pushes.
type Session struct {
	logger *zap.SugaredLogger
	self   backend.Session
	svc    Services
	roster *Roster

	mu     sync.Mutex
	target Target
	store  *MessageStore

	notifications chan Notification
}

func NewSession(logger *zap.SugaredLogger, self backend.Session, svc Services, roster *Roster) *Session {
	return &Session{
		logger:        logger,
		self:          self,
		svc:           svc,
		roster:        roster,
		store:         NewMessageStore(),
		notifications: make(chan Notification, 16),
	}
}

// Select switches the active conversation. The visible sequence is cleared
// immediately; history for the new target is then fetched and loaded. A load
// error leaves the cleared sequence in place and is not retried.
func (s *Session) Select(ctx context.Context, t Target) error {
	s.mu.Lock()
	s.target = t
	s.store.Reset()
	s.mu.Unlock()

	if t.None() {
		return nil
	}

	history, err := s.svc.Querier.Messages(ctx, t.Conversation(s.self.UserID))
	if err != nil {
		s.logger.Errorf("loading history: %v", err)
		return err
	}

	s.mu.Lock()
	// The user may have switched again while the fetch was in flight; a
	// stale snapshot must not overwrite the newer target's view.
	if s.target == t {
		s.store.Load(history)
	}
	s.mu.Unlock()

	return nil
}

// Target returns the active conversation target.
func (s *Session) Target() Target {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.target
}

// Messages returns the visible sequence for rendering.
func (s *Session) Messages() []backend.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Messages()
}

// Notifications delivers out-of-conversation and failure notices. The channel
// is buffered; notices are dropped, not blocked on, when the consumer falls
// behind.
func (s *Session) Notifications() <-chan Notification {
	return s.notifications
}

// Send drives one message from composition to confirmed state. The entry is
// visible immediately after the optimistic insert; a failed persist removes
// it again and raises a failure notification. An attachment is uploaded
// before the optimistic insert, so an upload failure aborts the send without
// ever touching the store.
func (s *Session) Send(ctx context.Context, req SendRequest) error {
	text := strings.TrimSpace(req.Text)
	if text == "" && req.File == nil {
		return ErrEmptyMessage
	}

	s.mu.Lock()
	target := s.target
	s.mu.Unlock()

	if target.None() {
		return ErrNoConversation
	}

	msg := backend.Message{
		TempID:      uuid.NewString(),
		Sender:      s.self.UserID,
		SenderEmail: s.self.Email,
		Receiver:    target.Peer,
		GroupID:     target.Group,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}

	if req.File != nil {
		path := fmt.Sprintf("chat-media/%d/%s-%s", s.self.UserID, xid.New().String(), req.File.Name)
		url, err := s.svc.Objects.Upload(ctx, path, req.File.Data, req.File.ContentType)
		if err != nil {
			s.logger.Errorf("uploading attachment to %s: %v", path, err)
			return fmt.Errorf("uploading attachment: %w", err)
		}
		msg.FileURL = url
		msg.FileType = req.File.ContentType
	}

	s.mu.Lock()
	s.store.InsertOptimistic(msg)
	s.mu.Unlock()

	row, err := s.svc.Mutator.InsertMessage(ctx, msg)
	if err != nil {
		s.logger.Errorf("persisting message %s: %v", msg.TempID, err)
		s.mu.Lock()
		s.store.Rollback(msg.TempID)
		s.mu.Unlock()
		s.notify(Notification{Preview: "Failed to send message"})
		return err
	}

	s.mu.Lock()
	s.store.Confirm(msg.TempID, row)
	s.mu.Unlock()

	return nil
}

// Run subscribes to the change feed and routes every pushed message until ctx
// is cancelled or the feed closes.
func (s *Session) Run(ctx context.Context) error {
	events, unsubscribe, err := s.svc.Feed.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to change feed: %w", err)
	}
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-events:
			if !ok {
				return nil
			}
			s.HandleIncoming(m)
		}
	}
}

// HandleIncoming merges one pushed row into the store and raises a
// notification when the row belongs to a conversation other than the one on
// screen. The merge relies on the store's dedup so that a push racing the
// local confirm of the same send never shows twice.
func (s *Session) HandleIncoming(m backend.Message) {
	s.mu.Lock()
	target := s.target
	s.store.MergeIncoming(m)
	s.mu.Unlock()

	if m.Sender == s.self.UserID {
		return
	}
	if !target.None() && relevant(m, target, s.self.UserID) {
		return
	}

	source := "Someone"
	switch {
	case m.GroupID != 0:
		if name, ok := s.roster.GroupName(m.GroupID); ok {
			source = name
		} else {
			source = "A group"
		}
	case m.SenderEmail != "":
		source = m.SenderEmail
	}

	s.notify(Notification{Source: source, Preview: preview(m)})
}

// relevant reports whether m belongs to the open conversation t as seen by
// self. With no conversation open nothing displays the row, so callers route
// every foreign message to a notification instead.
func relevant(m backend.Message, t Target, self int64) bool {
	if t.Group != 0 {
		return m.GroupID == t.Group
	}
	if t.Peer != 0 {
		return (m.Sender == t.Peer && m.Receiver == self) ||
			(m.Sender == self && m.Receiver == t.Peer)
	}
	return false
}

func preview(m backend.Message) string {
	if m.Text != "" {
		// Truncate on a rune boundary so a multi-byte character is never
		// cut mid-sequence.
		if runes := []rune(m.Text); len(runes) > 80 {
			return string(runes[:80])
		}
		return m.Text
	}
	if m.FileURL != "" {
		return "sent an attachment"
	}
	return "sent a new message"
}

func (s *Session) notify(n Notification) {
	select {
	case s.notifications <- n:
	default:
		s.logger.Warnf("dropping notification (%s): consumer is behind", n.Source)
	}
}
