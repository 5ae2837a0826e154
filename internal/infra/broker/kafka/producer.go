package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"villarent/internal/app/apperr"
)

// Producer publishes relayed outbox events to Kafka.
type Producer struct {
	sync sarama.SyncProducer
}

func NewProducer(brokers []string, cfg *sarama.Config) (*Producer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.ClientID = "villarent"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 5
	cfg.Net.MaxOpenRequests = 1
	cfg.Net.DialTimeout = 5 * time.Second
	sync, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return &Producer{sync: sync}, nil
}

// Publish keys messages by aggregate so events of one booking stay ordered.
func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	hs := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: hs,
	}
	if _, _, err := p.sync.SendMessage(msg); err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

// LogProducer stands in when no brokers are configured; events are only logged.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if p.Logger != nil {
		p.Logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "bytes", len(payload), "type", headers["ce_type"])
	}
	return nil
}
