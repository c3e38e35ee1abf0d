package publish

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher writes each batch as one message keyed by window.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaPublisher creates a synchronous writer for topic.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireAll,
			Compression:            kafka.Snappy,
			Async:                  false,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

// Name returns "kafka".
func (p *KafkaPublisher) Name() string { return "kafka" }

// Publish writes b.
func (p *KafkaPublisher) Publish(ctx context.Context, b *Batch) error {
	msg, err := Message(b)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s: %w", p.writer.Topic, err)
	}
	p.logger.Debug("momentum published to kafka",
		zap.String("topic", p.writer.Topic),
		zap.String("window", b.Window.String()),
		zap.Int("records", len(b.Records)))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Message builds the kafka message of a batch. The key keeps all sets of one
// window on one partition.
func Message(b *Batch) (kafka.Message, error) {
	body, err := Encode(b)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(b.Window.String()),
		Value: body,
		Headers: []kafka.Header{
			{Key: "as_of_date", Value: []byte(b.AsOfDate)},
			{Key: "run_id", Value: []byte(b.RunID)},
		},
	}, nil
}
