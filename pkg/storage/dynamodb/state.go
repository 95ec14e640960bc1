package dynamodb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

const offsetPK = "offset"

type offsetItem struct {
	PK           string `dynamodbav:"pk"`
	UpdateOffset int64  `dynamodbav:"update_offset"`
}

type sessionItem struct {
	PK     string `dynamodbav:"pk"`
	UserID int64  `dynamodbav:"user_id"`
	models.SessionRecord
}

func sessionPK(userID int64) string {
	return "session#" + strconv.FormatInt(userID, 10)
}

func stateKey(pk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
	}
}

// GetOffset returns the stored offset, or 0 when none has been saved yet.
func (s *Store) GetOffset(ctx context.Context) (int64, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.StateTableName),
		Key:            stateKey(offsetPK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get offset: %w", err)
	}
	if result.Item == nil {
		return 0, nil
	}

	var item offsetItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return 0, fmt.Errorf("failed to unmarshal offset: %w", err)
	}
	return item.UpdateOffset, nil
}

func (s *Store) SaveOffset(ctx context.Context, offset int64) error {
	item, err := attributevalue.MarshalMap(offsetItem{PK: offsetPK, UpdateOffset: offset})
	if err != nil {
		return fmt.Errorf("failed to marshal offset: %w", err)
	}

	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.StateTableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to save offset: %w", err)
	}
	return nil
}

// GetSession returns nil when the user has no session item.
func (s *Store) GetSession(ctx context.Context, userID int64) (*models.SessionRecord, error) {
	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.StateTableName),
		Key:            stateKey(sessionPK(userID)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item sessionItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &item.SessionRecord, nil
}

func (s *Store) SaveSession(ctx context.Context, userID int64, session models.SessionRecord) error {
	if session.Stage == models.StageNone {
		return s.ClearSession(ctx, userID)
	}

	item, err := attributevalue.MarshalMap(sessionItem{PK: sessionPK(userID), UserID: userID, SessionRecord: session})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if _, err := s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.StateTableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) ClearSession(ctx context.Context, userID int64) error {
	if _, err := s.Client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.StateTableName),
		Key:       stateKey(sessionPK(userID)),
	}); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
