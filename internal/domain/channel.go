package domain

import "time"

type Channel struct {
	ChannelID   string    `json:"id" dynamodbav:"channel_id"`
	WorkspaceID string    `json:"workspace_id" dynamodbav:"workspace_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description,omitempty" dynamodbav:"description"`
	CreatedBy   string    `json:"created_by" dynamodbav:"created_by"`
	IsPrivate   bool      `json:"is_private" dynamodbav:"is_private"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

// Message is the subset of a chat message the core needs to authorize thread rooms.
// Channel messages carry ChannelID; direct messages carry ReceiverID instead.
type Message struct {
	MessageID      string    `json:"id" dynamodbav:"message_id"`
	ChannelID      *string   `json:"channel_id" dynamodbav:"channel_id"`
	SenderID       string    `json:"sender_id" dynamodbav:"sender_id"`
	ReceiverID     *string   `json:"receiver_id" dynamodbav:"receiver_id"`
	ThreadParentID *string   `json:"thread_parent_id" dynamodbav:"thread_parent_id"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
}
