package mailqueue

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error

	declared   string
	durable    bool
	boundQueue string
	boundKey   string
	boundEx    string
	declareErr error
	closed     bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if f.declareErr != nil {
		return amqp.Queue{}, f.declareErr
	}
	f.declared, f.durable = name, durable
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.boundQueue, f.boundKey, f.boundEx = name, key, exchange
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type recordingSender struct {
	to, name, code string
	err            error
}

func (r *recordingSender) SendOTP(_ context.Context, to, name, code string) error {
	r.to, r.name, r.code = to, name, code
	return r.err
}

func TestPublisher_SendOTP(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch}

	require.NoError(t, p.SendOTP(context.Background(), "owner@example.com", "Ada", "123456"))
	assert.Equal(t, Exchange, ch.exchange)
	assert.Equal(t, RoutingKeyOTP, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var job Job
	require.NoError(t, json.Unmarshal(ch.msg.Body, &job))
	assert.Equal(t, "otp", job.Kind)
	assert.Equal(t, "owner@example.com", job.To)
	assert.Equal(t, "123456", job.Code)

	ch.err = errors.New("channel closed")
	assert.Error(t, p.SendOTP(context.Background(), "a@b.co", "A", "1"))
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		sendErr error
		wantErr bool
		wantTo  string
	}{
		{"delivers otp", `{"kind":"otp","to":"a@b.co","name":"A","code":"000001"}`, nil, false, "a@b.co"},
		{"bad json", `{`, nil, true, ""},
		{"unknown kind", `{"kind":"newsletter","to":"a@b.co"}`, nil, true, ""},
		{"missing code", `{"kind":"otp","to":"a@b.co"}`, nil, true, ""},
		{"sender failure", `{"kind":"otp","to":"a@b.co","code":"1"}`, errors.New("smtp down"), true, "a@b.co"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &recordingSender{err: tt.sendErr}
			err := Handle(context.Background(), s, []byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantTo, s.to)
		})
	}
}

func TestNewPublisher_DeclaresDurableQueue(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(nil, ch, "petconnect.mail.otp")
	require.NoError(t, err)

	assert.Equal(t, "petconnect.mail.otp", ch.declared)
	assert.True(t, ch.durable)
	assert.Equal(t, "petconnect.mail.otp", ch.boundQueue)
	assert.Equal(t, Exchange, ch.boundEx)

	// topic "mail.*" must route the OTP key into the queue
	matched, err := path.Match(ch.boundKey, RoutingKeyOTP)
	require.NoError(t, err)
	assert.True(t, matched)

	require.NoError(t, p.SendOTP(context.Background(), "owner@example.com", "Ada", "654321"))
	assert.Equal(t, RoutingKeyOTP, ch.key)
}

func TestNewPublisher_DeclareFailureClosesChannel(t *testing.T) {
	ch := &fakeChannel{declareErr: errors.New("access refused")}
	p, err := newPublisher(nil, ch, "petconnect.mail.otp")
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, ch.closed)
}

func TestDeclareQueue_RequiresName(t *testing.T) {
	ch := &fakeChannel{}
	_, err := DeclareQueue(ch, "")
	require.Error(t, err)
	assert.Empty(t, ch.declared)
}
