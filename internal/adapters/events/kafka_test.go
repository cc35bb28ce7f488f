package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type fakeKafkaWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error {
	return nil
}

func TestNewKafkaSinkValidation(t *testing.T) {
	_, err := NewKafkaSink(KafkaConfig{Topic: "lifecycle"})
	assert.Error(t, err)

	_, err = NewKafkaSink(KafkaConfig{Brokers: []string{" ", "\t"}, Topic: "lifecycle"})
	assert.Error(t, err)

	_, err = NewKafkaSink(KafkaConfig{Brokers: []string{"127.0.0.1:9092"}})
	assert.Error(t, err)

	sink, err := NewKafkaSink(KafkaConfig{Brokers: []string{" ", "127.0.0.1:9092"}, Topic: "lifecycle"})
	require.NoError(t, err)
	assert.NoError(t, sink.Close())
}

func TestKafkaSink_Handle(t *testing.T) {
	w := &fakeKafkaWriter{}
	sink := &KafkaSink{writer: w}

	err := sink.Handle(context.Background(), domain.Deleted(domain.KindSurvey, domain.Survey{ID: "s1"}))
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "Survey/Delete", string(w.msgs[0].Key))

	var decoded struct {
		Type string `json:"type"`
		Data struct {
			Kind string          `json:"kind"`
			Op   string          `json:"op"`
			Old  []domain.Survey `json:"old"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "Survey/Delete", decoded.Type)
	assert.Equal(t, "Delete", decoded.Data.Op)
	require.Len(t, decoded.Data.Old, 1)
	assert.Equal(t, "s1", decoded.Data.Old[0].ID)
}

func TestKafkaSink_HandleErrors(t *testing.T) {
	sink := &KafkaSink{writer: &fakeKafkaWriter{err: errors.New("broker down")}}
	assert.Error(t, sink.Handle(context.Background(), domain.Inserted(domain.KindUser, domain.User{ID: "u1"})))

	var nilSink *KafkaSink
	assert.Error(t, nilSink.Handle(context.Background(), domain.Inserted(domain.KindUser, domain.User{ID: "u1"})))
	assert.NoError(t, nilSink.Close())
}
