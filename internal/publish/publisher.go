// Package publish announces classifications on a Kafka topic.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/JeffersonLab/rfClassifier/internal/config"
	"github.com/JeffersonLab/rfClassifier/pkg/models"
)

// SchemaVersion tags every published message.
const SchemaVersion = "v1"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the value of every record written to the topic.
type Message struct {
	SchemaVersion string                 `json:"schemaVersion"`
	PublishedAt   time.Time              `json:"publishedAt"`
	Result        *models.AnalysisResult `json:"result"`
}

// Publisher writes one message per result, keyed by zone so a zone's events
// stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
	logger *zap.Logger
}

// New returns nil when no brokers are configured.
func New(cfg config.KafkaConfig, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		logger.Info("kafka publishing disabled")
		return nil, nil
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic must not be empty")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newWithWriter(w, cfg.Topic, logger), nil
}

func newWithWriter(w messageWriter, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{writer: w, topic: topic, now: time.Now, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, results []*models.AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(results))
	publishedAt := p.now().UTC()
	for _, r := range results {
		value, err := json.Marshal(Message{SchemaVersion: SchemaVersion, PublishedAt: publishedAt, Result: r})
		if err != nil {
			return fmt.Errorf("encoding result for %s %s: %w", r.Location, r.Timestamp, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(r.Location),
			Value: value,
			Headers: []kafka.Header{
				{Key: "content-type", Value: []byte("application/json")},
				{Key: "model", Value: []byte(r.Model)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing %d messages to %s: %w", len(msgs), p.topic, err)
	}
	p.logger.Debug("published analysis results", zap.String("topic", p.topic), zap.Int("messages", len(msgs)))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
