package backend

import "time"

// Message is one chat message, either direct (Receiver set) or addressed to a
// group (GroupID set). ID stays zero until the backing store confirms the row;
// TempID is the client-minted correlation id attached at composition time.
type Message struct {
	ID          int64     `json:"id,omitempty"`
	TempID      string    `json:"temp_id,omitempty"`
	Sender      int64     `json:"sender"`
	SenderEmail string    `json:"sender_email,omitempty"`
	Receiver    int64     `json:"receiver,omitempty"`
	GroupID     int64     `json:"group_id,omitempty"`
	Text        string    `json:"text,omitempty"`
	FileURL     string    `json:"file_url,omitempty"`
	FileType    string    `json:"file_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Direct reports whether m targets a single peer rather than a group.
func (m Message) Direct() bool {
	return m.GroupID == 0
}

type Profile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName prefers the username and falls back to the email address.
func (p Profile) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}
	return p.Email
}

type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	Members   []Profile `json:"members,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session identifies a signed-in user. It is created by an Identity on
// sign-in/sign-up, handed explicitly to every component that acts on the
// user's behalf, and discarded on sign-out.
type Session struct {
	UserID   int64
	Email    string
	Username string
	Token    string
}

// Conversation selects which slice of message history to fetch. Exactly one
// of Peer and Group is nonzero; Self is the requesting user.
type Conversation struct {
	Self  int64
	Peer  int64
	Group int64
}
