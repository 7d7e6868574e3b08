package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nikolayk812/bookstore/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "bookstore.events"
	writeTimeout = 10 * time.Second

	// DefaultEnqueueTimeout caps how long Publish waits for room in a full inbox.
	DefaultEnqueueTimeout = 250 * time.Millisecond
)

var (
	ErrClosed    = errors.New("publisher is closed")
	ErrInboxFull = errors.New("publisher inbox is full")
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher ships events to Kafka from a background goroutine. A request waits at most
// the enqueue timeout for inbox room; events that do not fit are dropped with ErrInboxFull.
// Close flushes what is already queued.
type Publisher struct {
	w              messageWriter
	source         string
	enqueueTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	inbox  chan kafka.Message
	done   chan struct{}
}

func NewPublisher(brokers []string, topic, source string, buf int) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}

	return newPublisher(w, source, buf)
}

func newPublisher(w messageWriter, source string, buf int) *Publisher {
	if buf <= 0 {
		buf = 1
	}

	p := &Publisher{
		w:              w,
		source:         source,
		enqueueTimeout: DefaultEnqueueTimeout,
		inbox:          make(chan kafka.Message, buf),
		done:           make(chan struct{}),
	}

	go p.loop()

	return p
}

func (p *Publisher) loop() {
	defer close(p.done)

	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.w.WriteMessages(ctx, m)
		cancel()

		if err != nil {
			slog.Error("kafka write failed", "method", "Publisher.loop", "key", string(m.Key), "error", err)
		}
	}

	if err := p.w.Close(); err != nil {
		slog.Error("kafka writer close failed", "method", "Publisher.loop", "error", err)
	}
}

// Publish enqueues one message per event keyed by its aggregate id. It blocks only while
// the inbox is full, and gives up when ctx is done or the enqueue timeout passes.
func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	messages := make([]kafka.Message, 0, len(events))

	for _, e := range events {
		env, err := NewEnvelope(p.source, e)
		if err != nil {
			return fmt.Errorf("NewEnvelope[%s]: %w", e.ID, err)
		}

		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(e.Key()),
			Value: value,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	var timer *time.Timer
	for i, m := range messages {
		select {
		case p.inbox <- m:
			continue
		default:
		}

		if timer == nil {
			timer = time.NewTimer(p.enqueueTimeout)
			defer timer.Stop()
		}

		select {
		case p.inbox <- m:
		case <-ctx.Done():
			return fmt.Errorf("enqueue: %w", ctx.Err())
		case <-timer.C:
			return fmt.Errorf("enqueue %d of %d: %w", i+1, len(messages), ErrInboxFull)
		}
	}

	return nil
}

// Close stops accepting events and waits until queued ones are written.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()

	<-p.done
}
