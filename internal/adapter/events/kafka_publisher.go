package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"medstock/internal/config"
	"medstock/internal/core/domain"
)

// KafkaPublisher fans domain events out through a synchronous, idempotent
// producer. Movements and alerts go to separate topics, partitioned by item
// so per-item ordering is preserved for consumers.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	cfg      *config.Config
	logger   *zap.Logger
}

func NewKafkaPublisher(cfg *config.Config, logger *zap.Logger) (*KafkaPublisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = cfg.KafkaRetries
	saramaCfg.Producer.Idempotent = true
	saramaCfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(cfg.KafkaBrokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaPublisher{producer: producer, cfg: cfg, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event any) error {
	topic, eventType, key, err := route(p.cfg, event)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(eventType)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s: %w", eventType, err)
	}

	p.logger.Debug("event published",
		zap.String("topic", topic),
		zap.String("event_type", eventType),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// route picks the topic, wire name, and partition key for an event.
func route(cfg *config.Config, event any) (topic, eventType, key string, err error) {
	switch e := event.(type) {
	case domain.TransactionRecordedEvent:
		return cfg.KafkaTopicStock, "TransactionRecorded", e.ItemID.String(), nil
	case domain.StockAdjustedEvent:
		return cfg.KafkaTopicStock, "StockAdjusted", e.ItemID.String(), nil
	case domain.AlertRaisedEvent:
		return cfg.KafkaTopicAlerts, "AlertRaised", e.ItemID.String(), nil
	case domain.AlertLevelChangedEvent:
		return cfg.KafkaTopicAlerts, "AlertLevelChanged", e.ItemID.String(), nil
	case domain.AlertAcknowledgedEvent:
		return cfg.KafkaTopicAlerts, "AlertAcknowledged", e.ItemID.String(), nil
	case domain.AlertResolvedEvent:
		return cfg.KafkaTopicAlerts, "AlertResolved", e.ItemID.String(), nil
	default:
		return "", "", "", fmt.Errorf("unknown event type: %T", event)
	}
}
