package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"notechat/internal/backend"
)

func direct(id int64, tempID string, sender, receiver int64, text string) backend.Message {
	return backend.Message{
		ID:        id,
		TempID:    tempID,
		Sender:    sender,
		Receiver:  receiver,
		Text:      text,
		CreatedAt: time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
}

// requireNoDuplicates asserts that no two visible entries share a nonzero id
// or a nonempty temp id.
func requireNoDuplicates(t *testing.T, msgs []backend.Message) {
	t.Helper()

	ids := make(map[int64]bool)
	tempIDs := make(map[string]bool)
	for _, m := range msgs {
		if m.ID != 0 {
			require.False(t, ids[m.ID], "duplicate id %d", m.ID)
			ids[m.ID] = true
		}
		if m.TempID != "" {
			require.False(t, tempIDs[m.TempID], "duplicate temp id %s", m.TempID)
			tempIDs[m.TempID] = true
		}
	}
}

func TestLoadReplacesSequence(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.Load([]backend.Message{direct(1, "", 7, 42, "old")})
	s.Load([]backend.Message{direct(2, "", 42, 7, "a"), direct(3, "", 7, 42, "b")})

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, int64(2), msgs[0].ID)
	require.Equal(t, int64(3), msgs[1].ID)
}

func TestResetClears(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.Load([]backend.Message{direct(1, "", 7, 42, "old")})
	s.Reset()

	require.Zero(t, s.Len())
}

func TestConfirmReplacesInPlace(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.Load([]backend.Message{direct(1, "", 42, 7, "earlier")})
	s.InsertOptimistic(direct(0, "tmp-1", 7, 42, "hello"))

	s.Confirm("tmp-1", direct(900, "tmp-1", 7, 42, "hello"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, int64(900), msgs[1].ID)
	require.Equal(t, "tmp-1", msgs[1].TempID)
	requireNoDuplicates(t, msgs)
}

func TestConfirmMissingIsNoop(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.Confirm("tmp-gone", direct(900, "tmp-gone", 7, 42, "hello"))

	require.Zero(t, s.Len())
}

func TestRollbackRemovesOptimisticEntry(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.InsertOptimistic(direct(0, "tmp-1", 7, 42, "hello"))
	s.Rollback("tmp-1")

	require.Zero(t, s.Len())
}

func TestRollbackMissingIsNoop(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.Load([]backend.Message{direct(1, "", 42, 7, "kept")})
	s.Rollback("tmp-gone")

	require.Equal(t, 1, s.Len())
}

func TestMergeIncomingDeduplicatesByID(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.Load([]backend.Message{direct(900, "", 7, 42, "hello")})
	s.MergeIncoming(direct(900, "", 7, 42, "hello"))

	require.Equal(t, 1, s.Len())
}

func TestMergeIncomingDeduplicatesByTempID(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.InsertOptimistic(direct(0, "tmp-1", 7, 42, "hello"))

	// Push delivery for the same send, arriving before the local confirm.
	s.MergeIncoming(direct(900, "tmp-1", 7, 42, "hello"))

	require.Equal(t, 1, s.Len())
}

func TestMergeIncomingAppendsNewMessage(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.Load([]backend.Message{direct(1, "", 42, 7, "old")})
	s.MergeIncoming(direct(2, "", 42, 7, "new"))

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, int64(2), msgs[1].ID)
}

// Confirm and MergeIncoming for the same logical message must commute: either
// interleaving leaves exactly one entry carrying the authoritative row.
func TestConfirmMergeCommute(t *testing.T) {
	t.Parallel()

	row := direct(900, "tmp-1", 7, 42, "hello")

	confirmFirst := NewMessageStore()
	confirmFirst.InsertOptimistic(direct(0, "tmp-1", 7, 42, "hello"))
	confirmFirst.Confirm("tmp-1", row)
	confirmFirst.MergeIncoming(row)

	mergeFirst := NewMessageStore()
	mergeFirst.InsertOptimistic(direct(0, "tmp-1", 7, 42, "hello"))
	mergeFirst.MergeIncoming(row)
	mergeFirst.Confirm("tmp-1", row)

	require.Equal(t, confirmFirst.Messages(), mergeFirst.Messages())
	require.Equal(t, 1, confirmFirst.Len())
	require.Equal(t, int64(900), confirmFirst.Messages()[0].ID)
}

// A longer operation mix never produces two visible entries with equal ids or
// equal temp ids.
func TestNoDuplicateVisibility(t *testing.T) {
	t.Parallel()

	s := NewMessageStore()
	s.Load([]backend.Message{direct(1, "", 42, 7, "a"), direct(2, "", 7, 42, "b")})

	s.InsertOptimistic(direct(0, "tmp-1", 7, 42, "c"))
	s.InsertOptimistic(direct(0, "tmp-2", 7, 42, "d"))
	s.MergeIncoming(direct(3, "", 42, 7, "e"))
	s.MergeIncoming(direct(901, "tmp-2", 7, 42, "d"))
	s.Confirm("tmp-2", direct(901, "tmp-2", 7, 42, "d"))
	s.Confirm("tmp-1", direct(900, "tmp-1", 7, 42, "c"))
	s.MergeIncoming(direct(900, "tmp-1", 7, 42, "c"))
	s.Rollback("tmp-never")
	s.MergeIncoming(direct(3, "", 42, 7, "e"))

	msgs := s.Messages()
	require.Len(t, msgs, 5)
	requireNoDuplicates(t, msgs)
}
