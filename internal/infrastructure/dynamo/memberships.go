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

// MembershipRepo stores (group, user) -> role records for workspaces and channels.
// PK: group_key, SK: user_id.
type MembershipRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMembershipRepo(client *dynamodb.Client, tableName string) *MembershipRepo {
	return &MembershipRepo{client: client, tableName: tableName}
}

func (r *MembershipRepo) Get(ctx context.Context, kind domain.GroupKind, groupID, userID string) (*domain.Membership, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            compositeKey(fieldGroupKey, domain.GroupKey(kind, groupID), fieldUserID, userID),
		ConsistentRead: consistent(),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("membership not found: %w", domain.ErrNotFound)
	}
	var m domain.Membership
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepo) Put(ctx context.Context, m *domain.Membership) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal membership: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MembershipRepo) Delete(ctx context.Context, kind domain.GroupKind, groupID, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey(fieldGroupKey, domain.GroupKey(kind, groupID), fieldUserID, userID),
	})
	return err
}

func (r *MembershipRepo) ListGroup(ctx context.Context, kind domain.GroupKind, groupID string) ([]domain.Membership, error) {
	items, err := queryAll(ctx, r.client, r.groupQuery(kind, groupID))
	if err != nil {
		return nil, err
	}
	members := make([]domain.Membership, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// DeleteGroup removes every membership record of a group.
func (r *MembershipRepo) DeleteGroup(ctx context.Context, kind domain.GroupKind, groupID string) error {
	input := r.groupQuery(kind, groupID)
	input.ProjectionExpression = aws.String("group_key, user_id")
	items, err := queryAll(ctx, r.client, input)
	if err != nil {
		return err
	}
	keys := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		keys = append(keys, map[string]types.AttributeValue{
			fieldGroupKey: item[fieldGroupKey],
			fieldUserID:   item[fieldUserID],
		})
	}
	return batchDelete(ctx, r.client, r.tableName, keys)
}

func (r *MembershipRepo) groupQuery(kind domain.GroupKind, groupID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("group_key = :g"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":g": &types.AttributeValueMemberS{Value: domain.GroupKey(kind, groupID)},
		},
		ConsistentRead: consistent(),
	}
}
