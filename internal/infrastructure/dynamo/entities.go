package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/thuan734655/DACS3-Server/internal/domain"
)

// The CRUD layer owns writes to workspaces, channels and messages. These repos only
// cover the reads the realtime core needs, plus workspace deletion.
//
// Channel listings go through workspace_id-index and are eventually consistent.

type WorkspaceRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewWorkspaceRepo(client *dynamodb.Client, tableName string) *WorkspaceRepo {
	return &WorkspaceRepo{client: client, tableName: tableName}
}

func (r *WorkspaceRepo) Get(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	var w domain.Workspace
	if err := getItem(ctx, r.client, r.tableName, strKey("workspace_id", workspaceID), &w); err != nil {
		return nil, fmt.Errorf("workspace %s: %w", workspaceID, err)
	}
	return &w, nil
}

func (r *WorkspaceRepo) Delete(ctx context.Context, workspaceID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("workspace_id", workspaceID),
	})
	return err
}

type ChannelRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewChannelRepo(client *dynamodb.Client, tableName string) *ChannelRepo {
	return &ChannelRepo{client: client, tableName: tableName}
}

func (r *ChannelRepo) Get(ctx context.Context, channelID string) (*domain.Channel, error) {
	var c domain.Channel
	if err := getItem(ctx, r.client, r.tableName, strKey("channel_id", channelID), &c); err != nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, err)
	}
	return &c, nil
}

// ListByWorkspace returns every channel of workspaceID.
func (r *ChannelRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Channel, error) {
	items, err := queryAll(ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexWorkspace),
		KeyConditionExpression: aws.String("#ws = :ws"),
		ExpressionAttributeNames: map[string]string{
			"#ws": fieldWorkspaceID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ws": &types.AttributeValueMemberS{Value: workspaceID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("channels of %s: %w", workspaceID, err)
	}
	var out []domain.Channel
	if err := attributevalue.UnmarshalListOfMaps(items, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type MessageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	var m domain.Message
	if err := getItem(ctx, r.client, r.tableName, strKey("message_id", messageID), &m); err != nil {
		return nil, fmt.Errorf("message %s: %w", messageID, err)
	}
	return &m, nil
}

// getItem does a strongly consistent point read into out. A missing item is ErrNotFound.
func getItem(ctx context.Context, client *dynamodb.Client, table string, key map[string]types.AttributeValue, out interface{}) error {
	res, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: consistent(),
	})
	if err != nil {
		return err
	}
	if res.Item == nil {
		return domain.ErrNotFound
	}
	return attributevalue.UnmarshalMap(res.Item, out)
}
