package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"fieldsync/internal/canvass/models"
)

type recordingProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
	block   chan struct{}
}

func (p *recordingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if p.err == nil {
			p.records = append(p.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func (p *recordingProducer) Records() []*kgo.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*kgo.Record(nil), p.records...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEvent(memberID string) models.VisitEvent {
	return models.VisitEvent{
		MemberID:      memberID,
		HouseholdID:   "12 main st|springfield|il|62701",
		Status:        models.StatusSurveyed,
		SurveyAnswers: json.RawMessage(`{"q1":"yes"}`),
		ClientTime:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		ReceivedAt:    time.Date(2024, 5, 1, 10, 0, 2, 0, time.UTC),
		DeviceID:      "tablet-7",
	}
}

func TestPublisher_SyncMode(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewPublisher(producer, discardLogger(), WithTopic("visits"))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), sampleEvent("m-1")))

	records := producer.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "visits", records[0].Topic)
	assert.Equal(t, "m-1", string(records[0].Key))

	var decoded models.VisitEvent
	require.NoError(t, json.Unmarshal(records[0].Value, &decoded))
	assert.Equal(t, models.StatusSurveyed, decoded.Status)
	assert.JSONEq(t, `{"q1":"yes"}`, string(decoded.SurveyAnswers))
}

func TestPublisher_SyncModeReturnsProduceError(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker down")}
	pub := NewPublisher(producer, discardLogger())
	defer pub.Close()

	err := pub.Emit(context.Background(), sampleEvent("m-1"))
	assert.ErrorContains(t, err, "broker down")
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	producer := &recordingProducer{}
	pub := NewPublisher(producer, discardLogger(), WithAsyncBuffer(100))

	for _, id := range []string{"m-1", "m-2", "m-3"} {
		require.NoError(t, pub.Emit(context.Background(), sampleEvent(id)))
	}
	pub.Close()

	records := producer.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "m-1", string(records[0].Key))
	assert.Equal(t, "m-3", string(records[2].Key))
}

func TestPublisher_AsyncDropsWhenFull(t *testing.T) {
	producer := &recordingProducer{block: make(chan struct{})}
	pub := NewPublisher(producer, discardLogger(), WithAsyncBuffer(1))

	// the worker takes the first event and blocks in ProduceSync; the
	// second fills the buffer
	require.NoError(t, pub.Emit(context.Background(), sampleEvent("m-1")))
	require.Eventually(t, func() bool {
		return pub.Emit(context.Background(), sampleEvent("m-2")) == nil
	}, time.Second, 5*time.Millisecond)

	err := pub.Emit(context.Background(), sampleEvent("m-3"))
	assert.ErrorIs(t, err, ErrBufferFull)

	close(producer.block)
	pub.Close()
	assert.Len(t, producer.Records(), 2)
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(&recordingProducer{}, discardLogger(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()

	assert.ErrorIs(t, pub.Emit(context.Background(), sampleEvent("m-1")), ErrClosed)
}
