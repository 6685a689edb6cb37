package event

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"storefront/internal/usecase"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("layer", "event").Logger()

// KafkaPublisher は注文イベントをKafkaへ流す。
// ブローカー未設定（開発環境）ならwriterはnilで、Publishは何もしない。
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers string, topic string) *KafkaPublisher {
	if strings.TrimSpace(brokers) == "" {
		return &KafkaPublisher{writer: nil}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 5 * time.Second,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev usecase.OrderEvent) error {
	if p.writer == nil {
		return nil
	}

	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		//同一注文のイベントは同じパーティションへ
		Key:   []byte(ev.OrderID),
		Value: value,
	})
	if err != nil {
		logger.Error().Err(err).Str("type", ev.Type).Str("order_id", ev.OrderID).Msg("publish failed")
		return err
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
