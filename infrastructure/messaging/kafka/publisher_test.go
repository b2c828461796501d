package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewClient(t *testing.T) {
	c := NewClient(" broker-1:9092, ,broker-2:9092 ")
	if len(c.Brokers) != 2 || c.Brokers[1] != "broker-2:9092" {
		t.Errorf("brokers = %v", c.Brokers)
	}
	if NewClient("").Enabled() {
		t.Error("empty broker list should disable kafka")
	}
}

func TestNewPublisherDisabled(t *testing.T) {
	if _, err := NewPublisher(NewClient(""), "orders.lifecycle"); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
}

func TestPublishKeysByOrder(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w}

	if err := p.Publish(context.Background(), "17", "order.status_changed", `{"orderId":17}`); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "17" || string(msg.Value) != `{"orderId":17}` {
		t.Errorf("message = %s / %s", msg.Key, msg.Value)
	}
	if len(msg.Headers) != 1 || string(msg.Headers[0].Value) != "order.status_changed" {
		t.Errorf("headers = %v", msg.Headers)
	}

	_ = p.Close()
	if !w.closed {
		t.Error("Close not forwarded")
	}
}
