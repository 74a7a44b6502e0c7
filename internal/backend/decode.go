package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fastjson"
)

var (
	ErrBadRow           = errors.New("malformed message row")
	ErrExclusiveAddress = errors.New("message row sets both receiver and group_id")
	ErrUnaddressedRow   = errors.New("message row sets neither receiver nor group_id")
)

var messagePool fastjson.ParserPool

// DecodeMessage validates one raw message row pushed by the change feed and
// returns a typed Message. Rows addressing both a peer and a group (or
// neither) are rejected here so downstream code never has to re-check the
// exclusivity of the two address kinds.
func DecodeMessage(data []byte) (Message, error) {
	parser := messagePool.Get()
	defer messagePool.Put(parser)

	v, err := parser.ParseBytes(data)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrBadRow, err)
	}

	id, err := optInt64(v, "id")
	if err != nil {
		return Message{}, err
	}

	sender, err := optInt64(v, "sender")
	if err != nil {
		return Message{}, err
	}
	if sender == 0 {
		return Message{}, fmt.Errorf("%w: missing sender", ErrBadRow)
	}

	receiver, err := optInt64(v, "receiver")
	if err != nil {
		return Message{}, err
	}

	groupID, err := optInt64(v, "group_id")
	if err != nil {
		return Message{}, err
	}

	if receiver != 0 && groupID != 0 {
		return Message{}, ErrExclusiveAddress
	}
	if receiver == 0 && groupID == 0 {
		return Message{}, ErrUnaddressedRow
	}

	createdRaw, err := optString(v, "created_at")
	if err != nil {
		return Message{}, err
	}
	if createdRaw == "" {
		return Message{}, fmt.Errorf("%w: missing created_at", ErrBadRow)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdRaw)
	if err != nil {
		return Message{}, fmt.Errorf("%w: bad created_at: %v", ErrBadRow, err)
	}

	m := Message{
		ID:        id,
		Sender:    sender,
		Receiver:  receiver,
		GroupID:   groupID,
		CreatedAt: createdAt,
	}

	for field, dst := range map[string]*string{
		"temp_id":      &m.TempID,
		"sender_email": &m.SenderEmail,
		"text":         &m.Text,
		"file_url":     &m.FileURL,
		"file_type":    &m.FileType,
	} {
		s, err := optString(v, field)
		if err != nil {
			return Message{}, err
		}
		*dst = s
	}

	return m, nil
}

// optInt64 reads an optional integer field, treating absent and null as zero.
func optInt64(v *fastjson.Value, field string) (int64, error) {
	fv := v.Get(field)
	if fv == nil || fv.Type() == fastjson.TypeNull {
		return 0, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: field %q must be a 64-bit integer value", ErrBadRow, field)
	}
	return n, nil
}

// optString reads an optional string field, treating absent and null as empty.
func optString(v *fastjson.Value, field string) (string, error) {
	fv := v.Get(field)
	if fv == nil || fv.Type() == fastjson.TypeNull {
		return "", nil
	}
	if fv.Type() != fastjson.TypeString {
		return "", fmt.Errorf("%w: field %q must be a string", ErrBadRow, field)
	}
	b, err := fv.StringBytes()
	if err != nil {
		return "", fmt.Errorf("%w: field %q must be a string", ErrBadRow, field)
	}
	return string(b), nil
}
