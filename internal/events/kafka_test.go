package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaPublisher_Publish(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewKafkaPublisher(writer, "reservation-events", quietLogger())

	occurred := time.Date(2024, 5, 20, 3, 0, 0, 0, time.UTC)
	event := Event{
		Type:          ReservationCreated,
		ReservationID: "res-1",
		RoomID:        "room-1",
		UserID:        "user-1",
		Start:         occurred,
		End:           occurred.Add(59 * time.Minute),
		OccurredAt:    occurred,
	}

	require.NoError(t, publisher.Publish(context.Background(), event))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "room-1", string(msg.Key))
	assert.Equal(t, occurred, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "reservation.created", string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.ReservationID, decoded.ReservationID)
	assert.True(t, decoded.End.Equal(event.End))
}

func TestKafkaPublisher_Errors(t *testing.T) {
	t.Run("writer failure is wrapped", func(t *testing.T) {
		writer := &fakeWriter{err: errors.New("broker unavailable")}
		publisher := NewKafkaPublisher(writer, "topic", quietLogger())

		err := publisher.Publish(context.Background(), Event{Type: RoomPurged, RoomID: "room-1"})
		assert.ErrorContains(t, err, "broker unavailable")
	})

	t.Run("publish after close", func(t *testing.T) {
		writer := &fakeWriter{}
		publisher := NewKafkaPublisher(writer, "topic", quietLogger())
		require.NoError(t, publisher.Close())
		require.NoError(t, publisher.Close())
		assert.True(t, writer.closed)

		err := publisher.Publish(context.Background(), Event{Type: UserPurged, UserID: "user-1"})
		assert.ErrorIs(t, err, ErrPublisherClosed)
	})
}

func TestNewKafkaWriter(t *testing.T) {
	_, err := NewKafkaWriter(KafkaConfig{Topic: "t"}, nil)
	assert.Error(t, err)

	_, err = NewKafkaWriter(KafkaConfig{Brokers: []string{"localhost:9092"}}, nil)
	assert.Error(t, err)

	writer, err := NewKafkaWriter(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "reservation-events"}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "reservation-events", writer.Topic)
	assert.IsType(t, &kafka.Hash{}, writer.Balancer)
}

func TestEventKeyAndRecorder(t *testing.T) {
	assert.Equal(t, "room-1", Event{RoomID: "room-1", UserID: "user-1"}.Key())
	assert.Equal(t, "user-1", Event{UserID: "user-1"}.Key())

	recorder := &Recorder{}
	require.NoError(t, recorder.Publish(context.Background(), Event{Type: ReservationCreated}))
	require.NoError(t, recorder.Publish(context.Background(), Event{Type: RoomPurged}))
	assert.Len(t, recorder.Events(), 2)
	assert.Len(t, recorder.OfType(RoomPurged), 1)
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), Event{}))
}
