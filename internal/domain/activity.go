package domain

// WorkItemKind is one of the tracked work-item entity kinds.
type WorkItemKind string

const (
	KindTask   WorkItemKind = "task"
	KindBug    WorkItemKind = "bug"
	KindEpic   WorkItemKind = "epic"
	KindSprint WorkItemKind = "sprint"
)

type WorkItemAction string

const (
	ActionCreated WorkItemAction = "created"
	ActionUpdated WorkItemAction = "updated"
	ActionDeleted WorkItemAction = "deleted"
)

// Work-item statuses that trigger notifications on transition.
const (
	StatusDone      = "Done"
	StatusActive    = "Active"
	StatusCompleted = "Completed"
)

// WorkItemEvent describes a committed work-item mutation. Previous* fields are only
// meaningful for updates.
type WorkItemEvent struct {
	Kind               WorkItemKind   `json:"kind" validate:"required,oneof=task bug epic sprint"`
	Action             WorkItemAction `json:"action" validate:"required,oneof=created updated deleted"`
	WorkspaceID        string         `json:"-"`
	EntityID           string         `json:"entity_id" validate:"required"`
	Title              string         `json:"title" validate:"required,max=500"`
	AssigneeID         *string        `json:"assignee_id"`
	PreviousAssigneeID *string        `json:"previous_assignee_id"`
	Status             string         `json:"status"`
	PreviousStatus     string         `json:"previous_status"`
}

// AuthorizeRequest is the body of POST /v1/workspaces/{id}/authorize.
type AuthorizeRequest struct {
	Action       string  `json:"action" validate:"required"`
	TargetUserID *string `json:"target_user_id"`
}

// BroadcastRequest is the body of POST /v1/events/broadcast.
type BroadcastRequest struct {
	Event    string `json:"event" validate:"required,max=64"`
	RoomKind string `json:"room_kind" validate:"required,oneof=user workspace channel thread"`
	RoomID   string `json:"room_id" validate:"required"`
	Payload  any    `json:"payload"`
}
