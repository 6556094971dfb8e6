package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aralis/pkg/rabbitmq"
)

// Message is one outgoing email with an HTML and a plain-text body.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	Text     string `json:"text"`
	Template string `json:"template,omitempty"`
}

// Mailer delivers a Message or reports why it could not.
type Mailer interface {
	Send(msg Message) error
}

// SMTPConfig holds the relay settings for SMTPMailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mail through an SMTP relay using PLAIN auth when credentials are set.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates a new SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// Send builds a multipart/alternative message and hands it to the relay.
func (m *SMTPMailer) Send(msg Message) error {
	from, err := mail.ParseAddress(m.cfg.From)
	if err != nil {
		return fmt.Errorf("invalid sender address %q: %w", m.cfg.From, err)
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}

	body, err := buildMIME(from, to, msg)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(addr, auth, from.Address, []string{to.Address}, body); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to.Address, err)
	}
	return nil
}

func buildMIME(from, to *mail.Address, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	headers := []string{
		"From: " + from.String(),
		"To: " + to.String(),
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: " + time.Now().Format(time.RFC1123Z),
		"Message-ID: <" + uuid.New().String() + "@aralis>",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + writer.Boundary(),
	}
	var head bytes.Buffer
	for _, h := range headers {
		head.WriteString(h + "\r\n")
	}
	head.WriteString("\r\n")

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		pw, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build email part: %w", err)
		}
		if _, err := pw.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("failed to write email part: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close email body: %w", err)
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}

// LogMailer only logs outgoing mail. Used in development. Bodies are never
// logged since they carry reset links.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(msg Message) error {
	m.logger.Info("email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("template", msg.Template))
	return nil
}

// Publisher is the subset of the RabbitMQ client QueueMailer needs.
type Publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// QueueMailer enqueues mail on the email queue; a Worker delivers it.
type QueueMailer struct {
	publisher Publisher
}

// NewQueueMailer creates a new QueueMailer.
func NewQueueMailer(publisher Publisher) *QueueMailer {
	return &QueueMailer{publisher: publisher}
}

func (m *QueueMailer) Send(msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}
	if err := m.publisher.Publish("", rabbitmq.EmailQueue, body); err != nil {
		return fmt.Errorf("failed to enqueue email to %s: %w", msg.To, err)
	}
	return nil
}

// Worker delivers queued mail with the wrapped Mailer.
type Worker struct {
	delivery Mailer
	logger   *zap.Logger
}

// NewWorker creates a Worker delivering through delivery.
func NewWorker(delivery Mailer, logger *zap.Logger) *Worker {
	return &Worker{delivery: delivery, logger: logger}
}

// Handle decodes one queued message and sends it. Malformed payloads are dropped.
func (w *Worker) Handle(body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		w.logger.Error("dropping malformed email message", zap.Error(err))
		return nil
	}
	if err := w.delivery.Send(msg); err != nil {
		return err
	}
	w.logger.Info("queued email delivered", zap.String("to", msg.To), zap.String("template", msg.Template))
	return nil
}
