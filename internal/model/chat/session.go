package chat

import "time"

// Session captures a transient anonymous conversation.
type Session struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy whose transcript does not share backing storage with s.
func (s Session) Clone() Session {
	copied := s
	copied.Messages = make([]Message, len(s.Messages))
	copy(copied.Messages, s.Messages)
	return copied
}

// MessageCount returns the number of messages in the session.
func (s Session) MessageCount() int {
	return len(s.Messages)
}
