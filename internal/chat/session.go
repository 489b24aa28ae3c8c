package chat

// Session is one independent conversation thread.
type Session struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Messages []Message `json:"messages"`
}

// Clone returns a deep copy safe to hand across the store boundary.
func (s Session) Clone() Session {
	copied := s
	if s.Messages != nil {
		copied.Messages = append([]Message(nil), s.Messages...)
	}
	return copied
}

// Summary is a lightweight session descriptor for list rendering.
type Summary struct {
	ID           string
	Name         string
	MessageCount int
}

// Snapshot is the whole-store state handed to the persistence layer.
type Snapshot struct {
	Sessions []Session `json:"sessions"`
	NextChat int       `json:"nextChat"`
}
