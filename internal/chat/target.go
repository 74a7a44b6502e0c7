package chat

import "notechat/internal/backend"

// Target is the active conversation: a single peer, a single group, or
// nothing. The zero Target means no conversation is open. Peer and Group are
// never both nonzero; the constructors below are the only way a Session
// accepts one.
type Target struct {
	Peer  int64
	Group int64
}

func NoTarget() Target {
	return Target{}
}

func PeerTarget(userID int64) Target {
	return Target{Peer: userID}
}

func GroupTarget(groupID int64) Target {
	return Target{Group: groupID}
}

// None reports whether no conversation is selected.
func (t Target) None() bool {
	return t.Peer == 0 && t.Group == 0
}

// Conversation translates the target into a history query for user self.
func (t Target) Conversation(self int64) backend.Conversation {
	return backend.Conversation{Self: self, Peer: t.Peer, Group: t.Group}
}
