package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
)

//go:generate mockery --name DynamoDBAPI --output ./mocks --outpkg mocks

// DynamoDBAPI is the subset of the DynamoDB client used by the store.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
// Entries live in one table keyed by entry_key; the offset and the sessions
// share a second table keyed by pk.
type Store struct {
	Client           DynamoDBAPI
	EntriesTableName string
	StateTableName   string
}

// New creates a new Store.
func New(client DynamoDBAPI, entriesTable, stateTable string) *Store {
	return &Store{
		Client:           client,
		EntriesTableName: entriesTable,
		StateTableName:   stateTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *Store) Close() error {
	return nil
}
