package gateway

import "context"

// MessageHandle identifies a message delivered through the gateway.
type MessageHandle struct {
	ChatID    int64
	MessageID int64
}

// MessageRef points at an existing message for forward/copy operations.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// ThreadHandle identifies a staff discussion thread created by the gateway.
type ThreadHandle struct {
	ID int64
}

// SendOptions carries optional delivery parameters.
type SendOptions struct {
	ThreadID       int64
	Keyboard       *Keyboard
	RemoveKeyboard bool
	DisablePreview bool
	HTML           bool
}

// Messenger is the narrow transport interface consumed by the core. Message
// delivery, button rendering and thread management are the gateway's
// concern; the core only describes what to send.
type Messenger interface {
	SendText(ctx context.Context, targetID int64, text string, opts SendOptions) (MessageHandle, error)
	SendDocument(ctx context.Context, targetID int64, filePath, caption string) (MessageHandle, error)
	ForwardMessage(ctx context.Context, ref MessageRef, targetThreadID int64) (MessageHandle, error)
	CopyMessage(ctx context.Context, ref MessageRef, targetID int64) (MessageHandle, error)
	EditText(ctx context.Context, targetID, messageID int64, text string, opts SendOptions) error
	CreateDiscussionThread(ctx context.Context, groupID int64, title string) (ThreadHandle, error)
	CloseDiscussionThread(ctx context.Context, groupID, threadID int64) error
	ReopenDiscussionThread(ctx context.Context, groupID, threadID int64) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
