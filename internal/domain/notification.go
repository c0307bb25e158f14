package domain

import "time"

type Notification struct {
	NotificationID string           `json:"id" dynamodbav:"notification_id"`
	UserID         string           `json:"user_id" dynamodbav:"user_id"`
	Type           NotificationType `json:"type" dynamodbav:"type"`
	TypeID         string           `json:"type_id" dynamodbav:"type_id"`
	WorkspaceID    *string          `json:"workspace_id" dynamodbav:"workspace_id,omitempty"`
	Content        string           `json:"content" dynamodbav:"content"`
	RelatedID      string           `json:"related_id" dynamodbav:"related_id"` // actor who caused it
	IsRead         bool             `json:"is_read" dynamodbav:"is_read"`
	CreatedAt      time.Time        `json:"created" dynamodbav:"created_at"`
}

type NotificationType string

const (
	NotifTaskAssigned   NotificationType = "task_assigned"
	NotifTaskUnassigned NotificationType = "task_unassigned"
	NotifTaskCreated    NotificationType = "task_created"
	NotifTaskCompleted  NotificationType = "task_completed"
	NotifTaskDeleted    NotificationType = "task_deleted"

	NotifBugAssigned      NotificationType = "bug_assigned"
	NotifBugUnassigned    NotificationType = "bug_unassigned"
	NotifBugReported      NotificationType = "bug_reported"
	NotifBugStatusChanged NotificationType = "bug_status_changed"
	NotifBugDeleted       NotificationType = "bug_deleted"
	NotifBugComment       NotificationType = "bug_comment"

	NotifEpicAssigned   NotificationType = "epic_assigned"
	NotifEpicUnassigned NotificationType = "epic_unassigned"
	NotifEpicCreated    NotificationType = "epic_created"
	NotifEpicDeleted    NotificationType = "epic_deleted"

	NotifSprintCreated   NotificationType = "sprint_created"
	NotifSprintStarted   NotificationType = "sprint_started"
	NotifSprintCompleted NotificationType = "sprint_completed"
	NotifSprintDeleted   NotificationType = "sprint_deleted"

	NotifChannelCreated NotificationType = "channel_created"
	NotifChannelUpdated NotificationType = "channel_updated"
	NotifChannelDeleted NotificationType = "channel_deleted"
	NotifChannelJoin    NotificationType = "channel_join"
	NotifChannelAdded   NotificationType = "channel_added"
	NotifChannelRemoved NotificationType = "channel_removed"

	NotifWorkspaceUpdated NotificationType = "workspace_updated"
	NotifWorkspaceDeleted NotificationType = "workspace_deleted"
	NotifWorkspaceAdded   NotificationType = "workspace_added"
	NotifWorkspaceRemoved NotificationType = "workspace_removed"
	NotifWorkspaceJoin    NotificationType = "workspace_join"
	NotifWorkspaceLeave   NotificationType = "workspace_leave"

	NotifReportSubmitted    NotificationType = "daily_report_submitted"
	NotifReportDeleted      NotificationType = "report_deleted"
	NotifInvitation         NotificationType = "invitation"
	NotifInvitationRejected NotificationType = "invitation_rejected"
	NotifMessageMention     NotificationType = "message_mention"
	NotifThreadReply        NotificationType = "thread_reply"
)

var notificationTypes = map[NotificationType]struct{}{
	NotifTaskAssigned: {}, NotifTaskUnassigned: {}, NotifTaskCreated: {}, NotifTaskCompleted: {}, NotifTaskDeleted: {},
	NotifBugAssigned: {}, NotifBugUnassigned: {}, NotifBugReported: {}, NotifBugStatusChanged: {}, NotifBugDeleted: {}, NotifBugComment: {},
	NotifEpicAssigned: {}, NotifEpicUnassigned: {}, NotifEpicCreated: {}, NotifEpicDeleted: {},
	NotifSprintCreated: {}, NotifSprintStarted: {}, NotifSprintCompleted: {}, NotifSprintDeleted: {},
	NotifChannelCreated: {}, NotifChannelUpdated: {}, NotifChannelDeleted: {}, NotifChannelJoin: {}, NotifChannelAdded: {}, NotifChannelRemoved: {},
	NotifWorkspaceUpdated: {}, NotifWorkspaceDeleted: {}, NotifWorkspaceAdded: {}, NotifWorkspaceRemoved: {}, NotifWorkspaceJoin: {}, NotifWorkspaceLeave: {},
	NotifReportSubmitted: {}, NotifReportDeleted: {}, NotifInvitation: {}, NotifInvitationRejected: {}, NotifMessageMention: {}, NotifThreadReply: {},
}

func (t NotificationType) Valid() bool {
	_, ok := notificationTypes[t]
	return ok
}

// NotifyRequest is the body of POST /v1/events/notify.
type NotifyRequest struct {
	Type        NotificationType `json:"type" validate:"required"`
	RecipientID string           `json:"recipient_id" validate:"required"`
	TypeID      string           `json:"type_id" validate:"required"`
	WorkspaceID *string          `json:"workspace_id"`
	Content     string           `json:"content" validate:"required,max=1000"`
}

// NotificationFilter narrows a notification listing. Zero values match everything.
type NotificationFilter struct {
	WorkspaceID string
	Type        NotificationType
}

// NotificationPage is one page of a newest-first listing.
type NotificationPage struct {
	Items []Notification `json:"notifications"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
