package domain

import "time"

type Workspace struct {
	WorkspaceID string    `json:"id" dynamodbav:"workspace_id"`
	Name        string    `json:"name" dynamodbav:"name"`
	Description string    `json:"description,omitempty" dynamodbav:"description"`
	CreatedBy   string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

// GroupKind names the kinds of group a membership record can belong to.
type GroupKind string

const (
	GroupWorkspace GroupKind = "workspace"
	GroupChannel   GroupKind = "channel"
)

// Membership maps (group, user) to a role. Channel memberships carry RoleMember.
// PK: group_key ("<kind>#<id>"), SK: user_id.
type Membership struct {
	GroupKey string    `json:"-" dynamodbav:"group_key"`
	UserID   string    `json:"user_id" dynamodbav:"user_id"`
	Role     Role      `json:"role" dynamodbav:"role"`
	JoinedAt time.Time `json:"joined_at" dynamodbav:"joined_at"`
}

// GroupKey builds the partition key of a membership record.
func GroupKey(kind GroupKind, id string) string {
	return string(kind) + "#" + id
}

type AddMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   Role   `json:"role" validate:"omitempty,oneof=Leader Manager Member"`
}
