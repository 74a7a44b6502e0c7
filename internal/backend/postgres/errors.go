package postgres

import "errors"

var (
	ErrMessageBadReceiver = errors.New("bad receiver id")
	ErrMessageBadGroup    = errors.New("bad group id")
)
