package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openvenue/matchd/pkg/messaging"
	"github.com/segmentio/kafka-go"
)

// KafkaTradeSender implements messaging.TradeSender using Kafka
type KafkaTradeSender struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaTradeSender creates a new Kafka trade sender
func NewKafkaTradeSender(brokerAddr, topic string) (*KafkaTradeSender, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerAddr),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaTradeSender{
		writer: writer,
		topic:  topic,
	}, nil
}

// SendTrades publishes one Kafka message per trade, keyed by the bid
// order id so fills of one order land in one partition.
func (k *KafkaTradeSender) SendTrades(trades []messaging.TradeMessage) error {
	if len(trades) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(trades))
	for _, trade := range trades {
		data, err := json.Marshal(trade)
		if err != nil {
			return fmt.Errorf("failed to marshal trade message: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(trade.BidOrderID),
			Value: data,
			Time:  time.Now(),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to send trades to Kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka writer
func (k *KafkaTradeSender) Close() error {
	return k.writer.Close()
}
