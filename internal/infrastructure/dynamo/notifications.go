package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

func (r *NotificationRepo) Put(ctx context.Context, n *domain.Notification) error {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldNotificationID, notificationID),
		ConsistentRead: consistent(),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser queries the user_id-created_at GSI newest first. GSI reads are eventually
// consistent, so a record written a moment ago may be missing; Get reads the base table.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, filter domain.NotificationFilter) ([]domain.Notification, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreated),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	var filters []string
	names := map[string]string{}
	if filter.WorkspaceID != "" {
		filters = append(filters, "#ws = :ws")
		names["#ws"] = fieldWorkspaceID
		input.ExpressionAttributeValues[":ws"] = &types.AttributeValueMemberS{Value: filter.WorkspaceID}
	}
	if filter.Type != "" {
		filters = append(filters, "#t = :t")
		names["#t"] = fieldType
		input.ExpressionAttributeValues[":t"] = &types.AttributeValueMemberS{Value: string(filter.Type)}
	}
	if len(filters) > 0 {
		expr := filters[0]
		for _, f := range filters[1:] {
			expr += " AND " + f
		}
		input.FilterExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
	}
	return r.query(ctx, input)
}

// ListUnread queries the user_id-created_at GSI and filters for is_read=false.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return r.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreated),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#r = :f"),
		ExpressionAttributeNames: map[string]string{
			"#r": fieldIsRead,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

// MarkAsRead flips is_read and returns the updated record. Only the read flag is
// ever written after creation.
func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsRead: true})
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(notification_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Attributes, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepo) Delete(ctx context.Context, notificationID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldNotificationID, notificationID),
	})
	return err
}

// DeleteByWorkspace removes every notification scoped to workspaceID.
func (r *NotificationRepo) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexWorkspace),
		KeyConditionExpression: aws.String("workspace_id = :ws"),
		ProjectionExpression:   aws.String(fieldNotificationID),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ws": &types.AttributeValueMemberS{Value: workspaceID},
		},
	})
	if err != nil {
		return 0, err
	}
	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		keys = append(keys, map[string]types.AttributeValue{fieldNotificationID: item[fieldNotificationID]})
	}
	if err := batchDelete(ctx, r.client, r.tableName, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (r *NotificationRepo) query(ctx context.Context, input *dynamodb.QueryInput) ([]domain.Notification, error) {
	items, err := queryAll(ctx, r.client, input)
	if err != nil {
		return nil, err
	}
	notifications := make([]domain.Notification, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}
