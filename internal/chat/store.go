package chat

import "notechat/internal/backend"

// MessageStore holds the ordered, deduplicated message sequence for the
// conversation currently on screen. Order is insertion order: history loads
// append in fetched order, optimistic sends and pushed rows append at the
// tail. The store itself is not safe for concurrent use; Session serializes
// every caller.
type MessageStore struct {
	messages []backend.Message
}

func NewMessageStore() *MessageStore {
	return &MessageStore{}
}

// Reset clears the visible sequence. Called on every conversation switch,
// including switching to no conversation at all.
func (s *MessageStore) Reset() {
	s.messages = nil
}

// Load replaces the visible sequence with a freshly fetched history snapshot.
func (s *MessageStore) Load(history []backend.Message) {
	s.messages = append([]backend.Message(nil), history...)
}

// InsertOptimistic appends a not-yet-persisted message. The message carries
// only its correlation id; the authoritative id arrives later via Confirm.
func (s *MessageStore) InsertOptimistic(m backend.Message) {
	s.messages = append(s.messages, m)
}

// Confirm replaces the optimistic entry matching tempID with the
// authoritative row, keeping its position. A missing entry is a no-op: the
// entry may have been rolled back, or the store reset for another
// conversation while the persist call was in flight.
func (s *MessageStore) Confirm(tempID string, row backend.Message) {
	for i, m := range s.messages {
		if m.TempID == tempID {
			s.messages[i] = row
			return
		}
	}
}

// Rollback removes the optimistic entry matching tempID. No-op if absent.
func (s *MessageStore) Rollback(tempID string) {
	for i, m := range s.messages {
		if m.TempID == tempID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// MergeIncoming appends a pushed row unless the sequence already holds the
// same logical message, matched by authoritative id or by correlation id.
// The temp_id check is what keeps the sender's own optimistic entry from
// showing up twice when the push beats the local confirm, and the id check
// covers the opposite ordering.
func (s *MessageStore) MergeIncoming(m backend.Message) {
	for _, existing := range s.messages {
		if m.ID != 0 && existing.ID == m.ID {
			return
		}
		if m.TempID != "" && existing.TempID == m.TempID {
			return
		}
	}
	s.messages = append(s.messages, m)
}

// Messages returns a copy of the visible sequence for rendering.
func (s *MessageStore) Messages() []backend.Message {
	return append([]backend.Message(nil), s.messages...)
}

func (s *MessageStore) Len() int {
	return len(s.messages)
}
