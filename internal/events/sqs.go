package events

import (
	"context"
	"encoding/json"
	"fmt"

	"vehicle_parking/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

// SQSAPI is the part of *sqs.Client the publisher needs.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQSPublisher struct {
	client   SQSAPI
	queueURL string
	logger   zerolog.Logger
}

func NewSQSPublisher(client SQSAPI, queueURL string, logger zerolog.Logger) *SQSPublisher {
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
		logger:   logger.With().Str("component", "sqs_publisher").Logger(),
	}
}

func (p *SQSPublisher) Publish(ctx context.Context, event domain.ParkingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("SQSPublisher.Publish (marshal): %w", err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(string(event.Type))},
		},
	})
	if err != nil {
		return fmt.Errorf("SQSPublisher.Publish %s: %w", event.EventID, err)
	}
	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("event_type", string(event.Type)).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("event sent to queue")
	return nil
}
