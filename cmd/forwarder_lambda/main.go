package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/David-Schmidt02/gastos-bot/pkg/budget"
	"github.com/David-Schmidt02/gastos-bot/pkg/forwarder"
	"github.com/David-Schmidt02/gastos-bot/pkg/logging"
	"github.com/David-Schmidt02/gastos-bot/pkg/metrics"
)

// setup builds the handler once per cold start.
func setup() *handler {
	// Load environment variables from .env file (useful for local testing).
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger, _, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("unable to build logger: %v", err)
	}

	cfg := budget.Config{
		BaseURL:   os.Getenv("ACTUAL_API_URL"),
		BudgetID:  os.Getenv("ACTUAL_BUDGET_ID"),
		AccountID: os.Getenv("ACTUAL_ACCOUNT_ID"),
		APIKey:    os.Getenv("ACTUAL_API_KEY"),
	}
	if !cfg.Enabled() {
		log.Fatal("ACTUAL_API_URL, ACTUAL_BUDGET_ID and ACTUAL_ACCOUNT_ID must be set")
	}

	// Metrics are not scraped inside Lambda; the registry only satisfies the forwarder.
	m := metrics.New(prometheus.NewRegistry())
	return newHandler(forwarder.New(budget.New(cfg, nil, logger), m, logger), logger)
}

type handler struct {
	fwd    forwarder.Handler
	logger *zap.Logger
}

func newHandler(fwd forwarder.Handler, logger *zap.Logger) *handler {
	return &handler{fwd: fwd, logger: logger.With(zap.String("component", "forwarder_lambda"))}
}

// Handle forwards every job in the batch. Failed messages are reported
// individually so SQS only redelivers those.
func (h *handler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse

	for _, message := range sqsEvent.Records {
		job, err := forwarder.DecodeJob(message.Body)
		if err != nil {
			// Malformed bodies reach the DLQ after max receives.
			h.logger.Error("failed to decode job", zap.String("message_id", message.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
			continue
		}

		if err := h.fwd.Forward(ctx, job); err != nil {
			h.logger.Error("failed to forward entry",
				zap.String("message_id", message.MessageId),
				zap.String("imported_id", job.ImportedID),
				zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: message.MessageId})
			continue
		}

		h.logger.Info("forwarded entry", zap.String("message_id", message.MessageId), zap.String("imported_id", job.ImportedID))
	}

	return resp, nil
}

func main() {
	lambda.Start(setup().Handle)
}
