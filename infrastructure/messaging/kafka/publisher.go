// Package kafka relays outbox events to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrDisabled = errors.New("kafka disabled")

type Client struct {
	Brokers []string
}

// NewClient parses a comma separated broker list; blanks are dropped.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

// NewWriter hashes on the message key, so every event of one order lands on
// the same partition and keeps its order.
func (c *Client) NewWriter(topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes outbox rows as Kafka messages keyed by order id.
type Publisher struct {
	writer messageWriter
}

func NewPublisher(client *Client, topic string) (*Publisher, error) {
	if !client.Enabled() {
		return nil, ErrDisabled
	}
	return &Publisher{writer: client.NewWriter(topic)}, nil
}

func (p *Publisher) Publish(ctx context.Context, aggregateID, eventType, payload string) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(aggregateID),
		Value: []byte(payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
		Time: time.Now().UTC(),
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
