package chat

import (
	"context"
	"sync"

	"notechat/internal/backend"
)

// fakeBackend implements every backend capability a Session touches, with
// per-call knobs for failure injection and an optional hook fired while a
// persist call is in flight.
type fakeBackend struct {
	mu sync.Mutex

	history      []backend.Message
	historyErr   error
	historyCalls int

	nextID     int64
	insertErr  error
	insertHook func()
	inserted   []backend.Message

	groups         []backend.Group
	createGroupErr error

	uploadURL   string
	uploadErr   error
	uploadPaths []string

	feed chan backend.Message
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID:    900,
		uploadURL: "https://files.example.com/blob",
		feed:      make(chan backend.Message, 8),
	}
}

func (f *fakeBackend) services() Services {
	return Services{Querier: f, Mutator: f, Objects: f, Feed: f}
}

func (f *fakeBackend) Messages(_ context.Context, c backend.Conversation) ([]backend.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}

	var out []backend.Message
	for _, m := range f.history {
		if c.Group != 0 {
			if m.GroupID == c.Group {
				out = append(out, m)
			}
			continue
		}
		if (m.Sender == c.Self && m.Receiver == c.Peer) ||
			(m.Sender == c.Peer && m.Receiver == c.Self) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) Profiles(context.Context) ([]backend.Profile, error) {
	return nil, nil
}

func (f *fakeBackend) GroupsForUser(context.Context, int64) ([]backend.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]backend.Group(nil), f.groups...), nil
}

func (f *fakeBackend) Notes(context.Context, int64) ([]backend.Note, error) {
	return nil, nil
}

func (f *fakeBackend) InsertMessage(_ context.Context, m backend.Message) (backend.Message, error) {
	if f.insertHook != nil {
		f.insertHook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErr != nil {
		return backend.Message{}, f.insertErr
	}

	row := m
	row.ID = f.nextID
	f.nextID++
	f.inserted = append(f.inserted, row)
	return row, nil
}

func (f *fakeBackend) CreateGroup(_ context.Context, name string, creator int64, memberIDs []int64) (backend.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createGroupErr != nil {
		return backend.Group{}, f.createGroupErr
	}

	members := make([]backend.Profile, 0, len(memberIDs)+1)
	for _, id := range append(memberIDs, creator) {
		members = append(members, backend.Profile{ID: id})
	}
	g := backend.Group{ID: int64(len(f.groups) + 1), Name: name, CreatedBy: creator, Members: members}
	f.groups = append(f.groups, g)
	return g, nil
}

func (f *fakeBackend) CreateNote(_ context.Context, n backend.Note) (backend.Note, error) {
	return n, nil
}

func (f *fakeBackend) UpdateNote(_ context.Context, n backend.Note) (backend.Note, error) {
	return n, nil
}

func (f *fakeBackend) DeleteNote(context.Context, int64) error {
	return nil
}

func (f *fakeBackend) Upload(_ context.Context, path string, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploadPaths = append(f.uploadPaths, path)
	return f.uploadURL, nil
}

func (f *fakeBackend) Subscribe(context.Context) (<-chan backend.Message, func(), error) {
	return f.feed, func() {}, nil
}

func (f *fakeBackend) insertedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.inserted)
}
