package notifications

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	texttemplate "text/template"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"aralis/internal/mailer"
	"aralis/internal/metrics"
	"aralis/internal/models"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	TemplateOrderConfirmation  = "order_confirmation"
	TemplateOrderAlert         = "order_alert"
	TemplateOrderStatus        = "order_status"
	TemplatePasswordReset      = "password_reset"
	TemplatePasswordChanged    = "password_changed"
	TemplateCustomizationAck   = "customization_ack"
	TemplateCustomizationAlert = "customization_alert"
)

var statusLabels = map[models.OrderStatus]string{
	models.OrderStatusPending:      "Pendiente",
	models.OrderStatusConfirmed:    "Confirmado",
	models.OrderStatusInProduction: "En confección",
	models.OrderStatusReady:        "Listo",
	models.OrderStatusShipped:      "Enviado",
	models.OrderStatusDelivered:    "Entregado",
	models.OrderStatusCancelled:    "Cancelado",
}

// StatusLabel is the customer-facing name of an order status.
func StatusLabel(s models.OrderStatus) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Config holds the addresses the notifier needs.
type Config struct {
	ShopEmail   string
	FrontendURL string
}

// Notifier renders the storefront emails and hands them to a Mailer.
type Notifier struct {
	mailer  mailer.Mailer
	cfg     Config
	metrics *metrics.Metrics
	logger  *zap.Logger
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// New parses the embedded templates and returns a Notifier.
func New(m mailer.Mailer, cfg Config, met *metrics.Metrics, logger *zap.Logger) (*Notifier, error) {
	htmlFuncs := htmltemplate.FuncMap{"money": money, "status": StatusLabel}
	textFuncs := texttemplate.FuncMap{"money": money, "status": StatusLabel}

	html, err := htmltemplate.New("emails").Funcs(htmlFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html email templates: %w", err)
	}
	text, err := texttemplate.New("emails").Funcs(textFuncs).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text email templates: %w", err)
	}

	return &Notifier{
		mailer:  m,
		cfg:     cfg,
		metrics: met,
		logger:  logger,
		html:    html,
		text:    text,
	}, nil
}

type orderData struct {
	Order    *models.Order
	TrackURL string
	AdminURL string
}

func (n *Notifier) orderData(order *models.Order) orderData {
	q := url.Values{"email": {order.CustomerEmail}}
	return orderData{
		Order:    order,
		TrackURL: n.cfg.FrontendURL + "/orders/track/" + url.PathEscape(order.OrderNumber) + "?" + q.Encode(),
		AdminURL: n.cfg.FrontendURL + "/admin/orders/" + url.PathEscape(order.OrderNumber),
	}
}

// OrderConfirmation tells the customer their order was received.
func (n *Notifier) OrderConfirmation(order *models.Order) error {
	return n.send(TemplateOrderConfirmation, order.CustomerEmail,
		fmt.Sprintf("Recibimos tu pedido %s", order.OrderNumber), n.orderData(order))
}

// OrderAlert tells the shop a new order arrived.
func (n *Notifier) OrderAlert(order *models.Order) error {
	return n.send(TemplateOrderAlert, n.cfg.ShopEmail,
		fmt.Sprintf("Nuevo pedido %s (%s)", order.OrderNumber, money(order.Total)), n.orderData(order))
}

// OrderStatusChanged tells the customer their order moved to a new status.
func (n *Notifier) OrderStatusChanged(order *models.Order) error {
	return n.send(TemplateOrderStatus, order.CustomerEmail,
		fmt.Sprintf("Tu pedido %s: %s", order.OrderNumber, StatusLabel(order.Status)), n.orderData(order))
}

type resetData struct {
	Name string
	Link string
}

// ResetLink builds the frontend URL that carries token.
func (n *Notifier) ResetLink(token string) string {
	return n.cfg.FrontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

// PasswordReset sends the reset link for token to user.
func (n *Notifier) PasswordReset(user *models.User, token string) error {
	return n.send(TemplatePasswordReset, user.Email, "Restablece tu contraseña",
		resetData{Name: user.Name, Link: n.ResetLink(token)})
}

// PasswordChanged confirms a completed reset or password change.
func (n *Notifier) PasswordChanged(user *models.User) error {
	return n.send(TemplatePasswordChanged, user.Email, "Tu contraseña fue actualizada",
		resetData{Name: user.Name, Link: n.cfg.FrontendURL + "/forgot-password"})
}

// CustomizationAck acknowledges a customization request to the customer.
func (n *Notifier) CustomizationAck(req *models.CustomizationRequest) error {
	return n.send(TemplateCustomizationAck, req.Email, "Recibimos tu solicitud de personalización", req)
}

// CustomizationAlert tells the shop a customization lead arrived.
func (n *Notifier) CustomizationAlert(req *models.CustomizationRequest) error {
	return n.send(TemplateCustomizationAlert, n.cfg.ShopEmail,
		fmt.Sprintf("Nueva solicitud de personalización: %s", req.GarmentType), req)
}

func (n *Notifier) send(name, to, subject string, data interface{}) error {
	msg, err := n.render(name, to, subject, data)
	if err != nil {
		n.metrics.EmailsSent.WithLabelValues(name, "failed").Inc()
		return err
	}
	if err := n.mailer.Send(msg); err != nil {
		n.metrics.EmailsSent.WithLabelValues(name, "failed").Inc()
		n.logger.Warn("email not sent", zap.String("template", name), zap.String("to", to), zap.Error(err))
		return err
	}
	n.metrics.EmailsSent.WithLabelValues(name, "sent").Inc()
	return nil
}

func (n *Notifier) render(name, to, subject string, data interface{}) (mailer.Message, error) {
	var html, text bytes.Buffer
	if err := n.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return mailer.Message{}, fmt.Errorf("failed to render %s html: %w", name, err)
	}
	if err := n.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return mailer.Message{}, fmt.Errorf("failed to render %s text: %w", name, err)
	}
	return mailer.Message{
		To:       to,
		Subject:  subject,
		HTML:     html.String(),
		Text:     text.String(),
		Template: name,
	}, nil
}
