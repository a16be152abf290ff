// Package stream publishes accepted visit events to Kafka as a best-effort
// analytics feed.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"fieldsync/internal/canvass/models"
	"fieldsync/internal/visits/metrics"
)

// ErrBufferFull is returned by Emit when the async buffer has no room. The
// event is dropped.
var ErrBufferFull = errors.New("visit stream buffer full")

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("visit stream closed")

// Stream results recorded in metrics.
const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultDropped   = "dropped"
)

// Producer is satisfied by *kgo.Client.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher writes one record per accepted visit, keyed by member id so a
// member's events stay on one partition.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	events chan models.VisitEvent
	wg     sync.WaitGroup
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer publishes from a background goroutine through a buffer of
// size n. Without it Emit produces synchronously.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.events = make(chan models.VisitEvent, n)
		}
	}
}

// WithTopic overrides the client's default produce topic.
func WithTopic(topic string) Option {
	return func(p *Publisher) { p.topic = topic }
}

// WithMetrics records publish results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithPublishTimeout bounds each produce call.
func WithPublishTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPublisher creates a publisher. Call Close to flush buffered events.
func NewPublisher(producer Producer, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		logger:   logger,
		timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.events != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Emit publishes ev, or queues it when running async.
func (p *Publisher) Emit(ctx context.Context, ev models.VisitEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if p.events == nil {
		return p.publish(ctx, ev)
	}
	select {
	case p.events <- ev:
		return nil
	default:
		p.metrics.IncrementStream(ResultDropped)
		return ErrBufferFull
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.events != nil {
		close(p.events)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for ev := range p.events {
		if err := p.publish(context.Background(), ev); err != nil {
			p.logger.Warn("visit stream publish failed",
				"member_id", ev.MemberID,
				"error", err,
			)
		}
	}
}

func (p *Publisher) publish(ctx context.Context, ev models.VisitEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		p.metrics.IncrementStream(ResultFailed)
		return fmt.Errorf("encode visit %s: %w", ev.MemberID, err)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.MemberID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/json")},
		},
		Timestamp: ev.ReceivedAt,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		p.metrics.IncrementStream(ResultFailed)
		return fmt.Errorf("produce visit %s: %w", ev.MemberID, err)
	}
	p.metrics.IncrementStream(ResultPublished)
	return nil
}
