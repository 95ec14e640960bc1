package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

const entryKeyAttr = "entry_key"

// Append stores the entry with a conditional put so a second write of the
// same (chat_id, message_id) is rejected by DynamoDB itself.
func (s *Store) Append(ctx context.Context, entry models.LedgerEntry) (storage.AppendResult, error) {
	// 1. Marshal the entry and attach its idempotency key.
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal ledger entry: %w", err)
	}
	item[entryKeyAttr] = &types.AttributeValueMemberS{Value: entry.Key().String()}

	// 2. Put only if nothing with this key exists yet.
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.EntriesTableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(entry_key)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return storage.Duplicate, nil
		}
		return 0, fmt.Errorf("failed to put ledger entry: %w", err)
	}

	return storage.Created, nil
}

// LoadAll scans the whole entries table and returns the entries in timestamp order.
func (s *Store) LoadAll(ctx context.Context) ([]models.LedgerEntry, error) {
	paginator := dynamodb.NewScanPaginator(s.Client, &dynamodb.ScanInput{
		TableName:      aws.String(s.EntriesTableName),
		ConsistentRead: aws.Bool(true),
	})

	entries := []models.LedgerEntry{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entries: %w", err)
		}

		var batch []models.LedgerEntry
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger entries: %w", err)
		}
		entries = append(entries, batch...)
	}

	storage.SortEntries(entries)
	return entries, nil
}
