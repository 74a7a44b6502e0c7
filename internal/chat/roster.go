package chat

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"notechat/internal/backend"
)

var (
	ErrGroupNameRequired = errors.New("group name is required")
	ErrNoMembers         = errors.New("group needs at least one member")
)

// Roster caches the signed-in user's group memberships for the lifetime of a
// session. It labels incoming group messages and backs the group list UI.
// Membership changes made elsewhere mid-session are not picked up; the cache
// is refreshed only by Load or by creating a group through it.
type Roster struct {
	logger  *zap.SugaredLogger
	querier backend.Querier
	mutator backend.Mutator
	self    backend.Session

	mu     sync.RWMutex
	groups []backend.Group
}

func NewRoster(logger *zap.SugaredLogger, querier backend.Querier, mutator backend.Mutator, self backend.Session) *Roster {
	return &Roster{
		logger:  logger,
		querier: querier,
		mutator: mutator,
		self:    self,
	}
}

// Load fetches the user's groups with their member profiles.
func (r *Roster) Load(ctx context.Context) error {
	groups, err := r.querier.GroupsForUser(ctx, r.self.UserID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.groups = groups
	r.mu.Unlock()

	r.logger.Debugf("Loaded %d groups for user %d", len(groups), r.self.UserID)

	return nil
}

// Groups returns a copy of the cached group list.
func (r *Roster) Groups() []backend.Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]backend.Group(nil), r.groups...)
}

// GroupName resolves a group id to its display name.
func (r *Roster) GroupName(id int64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.groups {
		if g.ID == id {
			return g.Name, true
		}
	}
	return "", false
}

// CreateGroup validates the request, creates the group with the given members
// plus the creator, and adds it to the cache. Validation failures happen
// before any service call.
func (r *Roster) CreateGroup(ctx context.Context, name string, memberIDs []int64) (backend.Group, error) {
	if name == "" {
		return backend.Group{}, ErrGroupNameRequired
	}
	if len(memberIDs) == 0 {
		return backend.Group{}, ErrNoMembers
	}

	group, err := r.mutator.CreateGroup(ctx, name, r.self.UserID, memberIDs)
	if err != nil {
		return backend.Group{}, err
	}

	r.mu.Lock()
	r.groups = append(r.groups, group)
	r.mu.Unlock()

	r.logger.Debugf("Created group (%s) with id %d", group.Name, group.ID)

	return group, nil
}
