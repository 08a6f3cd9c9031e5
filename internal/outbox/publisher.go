package outbox

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrPublisherDisabled = errors.New("no kafka brokers configured")

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaWriter returns nil when no broker is named.
func NewKafkaWriter(addrs []string, topic string) *kafka.Writer {
	brokers := []string{}
	for _, b := range addrs {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// Publish keys messages by aggregate so events of one order stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if p.writer == nil {
		return ErrPublisherDisabled
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.AggregateID),
		Value: e.Payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "event_id", Value: []byte(e.EventID)},
		},
	})
}

// BreakerPublisher stops hammering the broker after consecutive failures.
type BreakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerPublisher(next Publisher, maxFailures uint32, openTimeout time.Duration) *BreakerPublisher {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "outbox-publisher",
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerPublisher{next: next, cb: cb}
}

func (b *BreakerPublisher) Publish(ctx context.Context, e Event) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Publish(ctx, e)
	})
	return err
}

func (b *BreakerPublisher) State() gobreaker.State {
	return b.cb.State()
}
