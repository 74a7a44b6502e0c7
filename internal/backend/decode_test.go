package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeMessageDirect(t *testing.T) {
	t.Parallel()

	row := []byte(`{
		"id": 900,
		"temp_id": "3c1f",
		"sender": 7,
		"sender_email": "alice@example.com",
		"receiver": 42,
		"group_id": null,
		"text": "hello",
		"file_url": null,
		"file_type": null,
		"created_at": "2024-05-01T10:30:00Z"
	}`)

	m, err := DecodeMessage(row)
	require.NoError(t, err)
	require.Equal(t, int64(900), m.ID)
	require.Equal(t, "3c1f", m.TempID)
	require.Equal(t, int64(7), m.Sender)
	require.Equal(t, "alice@example.com", m.SenderEmail)
	require.Equal(t, int64(42), m.Receiver)
	require.Zero(t, m.GroupID)
	require.Equal(t, "hello", m.Text)
	require.True(t, m.Direct())
}

func TestDecodeMessageGroup(t *testing.T) {
	t.Parallel()

	row := []byte(`{"id":12,"sender":7,"group_id":3,"text":"hi team","created_at":"2024-05-01T10:30:00.123Z"}`)

	m, err := DecodeMessage(row)
	require.NoError(t, err)
	require.Equal(t, int64(3), m.GroupID)
	require.Zero(t, m.Receiver)
	require.False(t, m.Direct())
}

func TestDecodeMessageMalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := DecodeMessage([]byte(`{"id":`))
	require.ErrorIs(t, err, ErrBadRow)
}

func TestDecodeMessageMissingSender(t *testing.T) {
	t.Parallel()

	_, err := DecodeMessage([]byte(`{"id":1,"receiver":2,"created_at":"2024-05-01T10:30:00Z"}`))
	require.ErrorIs(t, err, ErrBadRow)
}

func TestDecodeMessageBothAddresses(t *testing.T) {
	t.Parallel()

	_, err := DecodeMessage([]byte(`{"id":1,"sender":7,"receiver":2,"group_id":3,"created_at":"2024-05-01T10:30:00Z"}`))
	require.ErrorIs(t, err, ErrExclusiveAddress)
}

func TestDecodeMessageNoAddress(t *testing.T) {
	t.Parallel()

	_, err := DecodeMessage([]byte(`{"id":1,"sender":7,"text":"hi","created_at":"2024-05-01T10:30:00Z"}`))
	require.ErrorIs(t, err, ErrUnaddressedRow)
}

func TestDecodeMessageBadTimestamp(t *testing.T) {
	t.Parallel()

	_, err := DecodeMessage([]byte(`{"id":1,"sender":7,"receiver":2,"created_at":"yesterday"}`))
	require.ErrorIs(t, err, ErrBadRow)
}

func TestDecodeMessageWrongFieldType(t *testing.T) {
	t.Parallel()

	_, err := DecodeMessage([]byte(`{"id":"nine hundred","sender":7,"receiver":2,"created_at":"2024-05-01T10:30:00Z"}`))
	require.ErrorIs(t, err, ErrBadRow)
}
