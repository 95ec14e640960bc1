package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/forwarder"
	"github.com/David-Schmidt02/gastos-bot/pkg/logging"
	"github.com/David-Schmidt02/gastos-bot/pkg/storage"
	dydbstore "github.com/David-Schmidt02/gastos-bot/pkg/storage/dynamodb"
)

// ResyncEvent selects which entries to re-enqueue. A zero Since re-enqueues
// the whole ledger; the budget API drops entries it already imported.
type ResyncEvent struct {
	Since int64 `json:"since"`
}

// ResyncResult summarizes one run.
type ResyncResult struct {
	Enqueued int `json:"enqueued"`
	Failed   int `json:"failed"`
}

type resyncer struct {
	store  storage.LedgerReader
	queue  forwarder.Queue
	logger *zap.Logger
}

func setup(ctx context.Context) *resyncer {
	// Load environment variables for local testing.
	godotenv.Load()

	logger, _, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("unable to build logger: %v", err)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	sqsQueueURL := os.Getenv("SQS_QUEUE_URL")
	if sqsQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL environment variable not set")
	}

	entriesTable := os.Getenv("DYNAMODB_ENTRIES_TABLE")
	stateTable := os.Getenv("DYNAMODB_STATE_TABLE")
	if entriesTable == "" || stateTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	return &resyncer{
		store:  dydbstore.New(dynamodb.NewFromConfig(cfg), entriesTable, stateTable),
		queue:  forwarder.NewSQSQueue(sqs.NewFromConfig(cfg), sqsQueueURL),
		logger: logger.With(zap.String("component", "resync_lambda")),
	}
}

// HandleRequest is triggered by an EventBridge Schedule or by hand.
func (r *resyncer) HandleRequest(ctx context.Context, event ResyncEvent) (ResyncResult, error) {
	r.logger.Info("starting ledger resync", zap.Int64("since", event.Since))

	entries, err := r.store.LoadAll(ctx)
	if err != nil {
		return ResyncResult{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	var result ResyncResult
	for _, entry := range entries {
		if entry.Timestamp < event.Since {
			continue
		}
		if err := r.queue.Enqueue(ctx, entry); err != nil {
			// One failure must not stop the whole batch.
			r.logger.Error("failed to re-enqueue entry", zap.String("key", entry.Key().String()), zap.Error(err))
			result.Failed++
			continue
		}
		result.Enqueued++
	}

	r.logger.Info("ledger resync finished", zap.Int("enqueued", result.Enqueued), zap.Int("failed", result.Failed))
	return result, nil
}

func main() {
	lambda.Start(setup(context.Background()).HandleRequest)
}
