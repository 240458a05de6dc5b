package gateway

// ChatType distinguishes private conversations from staff group chats.
type ChatType string

const (
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
)

// User describes a transport-level participant.
type User struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Username string `json:"username,omitempty"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// Contact is a shared phone contact used as identity proof.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	OwnerID     int64  `json:"owner_id"`
}

// Message is an inbound message event delivered by the gateway.
type Message struct {
	ID           int64    `json:"id"`
	ChatID       int64    `json:"chat_id"`
	ChatType     ChatType `json:"chat_type"`
	ThreadID     int64    `json:"thread_id,omitempty"`
	From         User     `json:"from"`
	Text         string   `json:"text,omitempty"`
	Caption      string   `json:"caption,omitempty"`
	Contact      *Contact `json:"contact,omitempty"`
	ReplyTo      *Message `json:"reply_to,omitempty"`
	NewMembers   []User   `json:"new_members,omitempty"`
	GroupCreated bool     `json:"group_created,omitempty"`
	IsForum      bool     `json:"is_forum,omitempty"`
}

// Body returns the message text, falling back to the media caption.
func (m *Message) Body() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// Callback is an inbound button press.
type Callback struct {
	ID      string   `json:"id"`
	Data    string   `json:"data"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
}

// Update is the unit of work delivered by the gateway webhook. Exactly one
// field is set. Updates for the same chat arrive in order and serially;
// updates for different chats may be processed concurrently.
type Update struct {
	Message  *Message  `json:"message,omitempty"`
	Callback *Callback `json:"callback,omitempty"`
}
