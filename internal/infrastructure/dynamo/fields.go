package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID         = "user_id"
	fieldGroupKey       = "group_key"
	fieldNotificationID = "notification_id"
	fieldWorkspaceID    = "workspace_id"
	fieldIsRead         = "is_read"
	fieldType           = "type"
)

// GSI names.
const (
	indexUserCreated = "user_id-created_at-index"
	indexWorkspace   = "workspace_id-index"
)
