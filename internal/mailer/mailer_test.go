package mailer

import (
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"aralis/pkg/rabbitmq"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(msg Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func TestSMTPMailer_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "Aralis <no-reply@aralis.store>"})
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotBody = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	err := m.Send(Message{To: "ana@example.com", Subject: "Pedido ARL-20260001", HTML: "<p>Hola</p>", Text: "Hola"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@aralis.store", gotFrom)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)
	body := string(gotBody)
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "<p>Hola</p>")
	assert.True(t, strings.Contains(body, "text/plain; charset=utf-8"))
}

func TestSMTPMailer_SendErrors(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "no-reply@aralis.store"})
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	assert.Error(t, m.Send(Message{To: "not-an-address"}))
	err := m.Send(Message{To: "ana@example.com", Subject: "x"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestQueueMailer_PublishesToEmailQueue(t *testing.T) {
	pub := new(mockPublisher)
	msg := Message{To: "ana@example.com", Subject: "Hola", Template: "password_reset"}
	body, _ := json.Marshal(msg)
	pub.On("Publish", "", rabbitmq.EmailQueue, body).Return(nil).Once()

	require.NoError(t, NewQueueMailer(pub).Send(msg))
	pub.AssertExpectations(t)
}

func TestWorker_Handle(t *testing.T) {
	delivery := new(mockMailer)
	w := NewWorker(delivery, zap.NewNop())

	msg := Message{To: "ana@example.com", Subject: "Hola"}
	body, _ := json.Marshal(msg)

	delivery.On("Send", msg).Return(nil).Once()
	assert.NoError(t, w.Handle(body))

	delivery.On("Send", msg).Return(errors.New("relay down")).Once()
	assert.Error(t, w.Handle(body))

	assert.NoError(t, w.Handle([]byte("{not json")))
	delivery.AssertExpectations(t)
}

func TestLogMailer_OmitsBody(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core))

	link := "https://aralis.store/reset-password?token=abc123"
	require.NoError(t, m.Send(Message{
		To:       "ana@example.com",
		Subject:  "Restablece tu contraseña",
		HTML:     `<a href="` + link + `">enlace</a>`,
		Text:     "Abre " + link,
		Template: "password_reset",
	}))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "ana@example.com", fields["to"])
	assert.Equal(t, "password_reset", fields["template"])
	for key, value := range fields {
		assert.NotContains(t, value, "token=", "field %s leaks the body", key)
	}
}
