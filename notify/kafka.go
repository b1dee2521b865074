// Package notify publishes review-completed events.
//
// KafkaNotifier implements review.Notifier on a sarama SyncProducer. The
// event is the run summary as JSON, keyed by run ID, so consumers can fetch
// the full result from the API.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/warp/register-review/review"
)

const EventReviewCompleted = "review.completed"

// Config selects the topic and the producer identity.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
	Source   string
}

// Event is the message body.
type Event struct {
	Kind string            `json:"kind"`
	Run  review.RunSummary `json:"run"`
}

type KafkaNotifier struct {
	sp     sarama.SyncProducer
	topic  string
	source string
	log    *zap.Logger
}

var _ review.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(sp sarama.SyncProducer, cfg Config, log *zap.Logger) *KafkaNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaNotifier{
		sp:     sp,
		topic:  cfg.Topic,
		source: cfg.Source,
		log:    log.With(zap.String("component", "KafkaNotifier")),
	}
}

// NewSyncProducer dials the brokers with an idempotent, all-acks producer.
func NewSyncProducer(cfg Config) (sarama.SyncProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	sCfg := sarama.NewConfig()
	sCfg.Version = sarama.V3_3_2_0
	if cfg.ClientID != "" {
		sCfg.ClientID = cfg.ClientID
	}
	sCfg.Producer.Return.Successes = true
	sCfg.Producer.RequiredAcks = sarama.WaitForAll
	sCfg.Producer.Idempotent = true
	sCfg.Net.MaxOpenRequests = 1
	sCfg.Producer.Retry.Max = 5
	sCfg.Producer.Retry.Backoff = 200 * time.Millisecond

	sp, err := sarama.NewSyncProducer(cfg.Brokers, sCfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return sp, nil
}

func (n *KafkaNotifier) Close() error {
	if n == nil || n.sp == nil {
		return nil
	}
	return n.sp.Close()
}

func (n *KafkaNotifier) ReviewCompleted(ctx context.Context, run *review.StoredRun) error {
	body, err := json.Marshal(Event{Kind: EventReviewCompleted, Run: run.Summary()})
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}
	return n.send(ctx, run.ID.String(), body, map[string]string{
		"event-kind":   EventReviewCompleted,
		"source":       n.source,
		"content-type": "application/json",
	})
}

func (n *KafkaNotifier) send(_ context.Context, key string, value []byte, headers map[string]string) error {
	if n == nil || n.sp == nil {
		return errors.New("sync producer is not initialized")
	}

	var hs []sarama.RecordHeader
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   n.topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(value),
		Headers: hs,
	}

	part, off, err := n.sp.SendMessage(msg)
	if err != nil {
		n.log.Error("failed to send kafka message",
			zap.Error(err),
			zap.String("topic", n.topic),
			zap.String("key", key),
			zap.Int("bytes", len(value)),
		)
		return fmt.Errorf("send kafka message: %w", err)
	}

	n.log.Info("kafka message sent",
		zap.String("topic", n.topic),
		zap.String("key", key),
		zap.Int32("partition", part),
		zap.Int64("offset", off),
		zap.Int("bytes", len(value)),
	)
	return nil
}
