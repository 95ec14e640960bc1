package forwarder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/David-Schmidt02/gastos-bot/pkg/models"
)

//go:generate mockery --name SQSAPI --output ./mocks --outpkg mocks

// SQSAPI is the subset of the SQS client used by SQSQueue.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSQueue implements the Queue interface using AWS SQS. Jobs are consumed
// by the forwarder lambda.
type SQSQueue struct {
	Client   SQSAPI
	QueueURL string
}

// NewSQSQueue creates a new SQSQueue.
func NewSQSQueue(client SQSAPI, queueURL string) *SQSQueue {
	return &SQSQueue{
		Client:   client,
		QueueURL: queueURL,
	}
}

// Make sure we conform to the interface
var _ Queue = (*SQSQueue)(nil)

// Enqueue sends the job for the entry to the SQS queue.
func (q *SQSQueue) Enqueue(ctx context.Context, entry models.LedgerEntry) error {
	job := NewJob(entry)

	// Marshal the job to JSON.
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal forward job for SQS: %w", err)
	}

	// Send the message to SQS.
	_, err = q.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.QueueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"imported_id": {DataType: aws.String("String"), StringValue: aws.String(job.ImportedID)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	return nil
}

// DecodeJob parses an SQS message body produced by Enqueue.
func DecodeJob(body string) (Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return Job{}, fmt.Errorf("failed to unmarshal forward job: %w", err)
	}
	if job.ImportedID == "" {
		job.ImportedID = ImportedID(job.Entry.ChatID, job.Entry.MessageID)
	}
	return job, nil
}
