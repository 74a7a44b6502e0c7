// Package backend defines the boundary to the hosted service that owns
// persistence, identity, file storage and realtime delivery. The rest of the
// application only ever sees the typed values and interfaces declared here;
// raw rows are validated at this boundary before they cross it.
package backend

import (
	"context"
	"errors"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrObjectExists       = errors.New("object path already exists")
	ErrGroupExists        = errors.New("group already exists")
	ErrBadMembers         = errors.New("bad member list")
	ErrNoteNotFound       = errors.New("note does not exist")
)

// Querier fetches typed rows from the service's collections.
type Querier interface {
	// Messages returns the history of one conversation in ascending
	// creation order.
	Messages(ctx context.Context, c Conversation) ([]Message, error)
	Profiles(ctx context.Context) ([]Profile, error)
	GroupsForUser(ctx context.Context, userID int64) ([]Group, error)
	Notes(ctx context.Context, userID int64) ([]Note, error)
}

// Mutator inserts and updates rows, returning the resulting authoritative row.
type Mutator interface {
	InsertMessage(ctx context.Context, m Message) (Message, error)
	CreateGroup(ctx context.Context, name string, creator int64, memberIDs []int64) (Group, error)
	CreateNote(ctx context.Context, n Note) (Note, error)
	UpdateNote(ctx context.Context, n Note) (Note, error)
	DeleteNote(ctx context.Context, id int64) error
}

// Feed is a cancellable source of newly inserted messages. Subscribe returns
// the event channel together with an unsubscribe function; the channel is
// closed once the subscription ends.
type Feed interface {
	Subscribe(ctx context.Context) (<-chan Message, func(), error)
}

// ObjectStore uploads blobs under unique paths and hands back a publicly
// resolvable URL. Existing paths are never overwritten.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// Identity performs sign-up/sign-in/sign-out against the service.
type Identity interface {
	SignUp(ctx context.Context, email, username, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, s Session) error
}
