package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/newthinker/sentinel/internal/notifier"
)

var _ notifier.Notifier = (*Publisher)(nil)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Topic: "t"})
	assert.Error(t, err)

	_, err = New(Config{Brokers: []string{"localhost:9092"}})
	assert.Error(t, err)

	p, err := New(Config{Brokers: []string{"localhost:9092"}, Topic: "sentinel.signals"})
	require.NoError(t, err)
	assert.Equal(t, "kafka", p.Name())
}

func TestPublisher_Send(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, "sentinel.signals")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := core.NewEvent(core.EventSignalClosed, core.Signal{ID: 9, Symbol: "ETHUSDT", Status: core.StatusHitStop}, at)
	require.NoError(t, p.Send(context.Background(), event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "ETHUSDT", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, "signal.closed", string(msg.Headers[0].Value))

	var decoded core.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, core.StatusHitStop, decoded.Signal.Status)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_SendError(t *testing.T) {
	p := newPublisher(&fakeWriter{err: errors.New("leader not available")}, "t")
	err := p.Send(context.Background(), core.NewEvent(core.EventSignalOpened, core.Signal{}, time.Now()))
	assert.ErrorIs(t, err, core.ErrPublishFailed)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Gzip, parseCompression(""))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Compression(0), parseCompression("none"))
}
