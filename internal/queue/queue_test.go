package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/soitgoes511/graph-network-visualizer/pkg/progress"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   []string
	declareErr error
	exchange   string
	key        string
	msg        amqp091.Publishing
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp091.Table) error {
	f.declared = append(f.declared, name+"/"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func TestProgressForwarder(t *testing.T) {
	ch := &fakeChannel{}
	f, err := NewProgressForwarder(ch, "", "graphnet.progress")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultExchange + "/topic"}, ch.declared)

	e := progress.Event{Time: time.Unix(10, 0).UTC(), Level: "info", Message: "[Process] Complete"}
	require.NoError(t, f.Forward(context.Background(), e))

	assert.Equal(t, DefaultExchange, ch.exchange)
	assert.Equal(t, "graphnet.progress", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var got progress.Event
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, e, got)
}

func TestProgressForwarder_DeclareFails(t *testing.T) {
	_, err := NewProgressForwarder(&fakeChannel{declareErr: errors.New("closed")}, "x", "t")
	assert.Error(t, err)
}
