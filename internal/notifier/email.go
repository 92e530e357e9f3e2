package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vkarpenko/ops_awareness_system/internal/escalation"
)

// EmailConfig holds SMTP configuration for operations notifications.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Validate checks the fields a dispatch cannot run without.
func (c *EmailConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("SMTP port is required")
	}
	if c.From == "" {
		return fmt.Errorf("from address is required")
	}
	return nil
}

// EmailNotifier delivers escalation messages over SMTP.
type EmailNotifier struct {
	config EmailConfig
	logger *logrus.Logger
}

// NewEmailNotifier creates a notifier, rejecting unusable configuration up
// front rather than at dispatch time.
func NewEmailNotifier(config EmailConfig, logger *logrus.Logger) (*EmailNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("notifier: invalid email config: %w", err)
	}
	return &EmailNotifier{config: config, logger: logger}, nil
}

// Send delivers one message. Failures are returned as-is for the pipeline
// to classify; nothing is retried here.
func (n *EmailNotifier) Send(ctx context.Context, msg escalation.Message) error {
	if msg.To == "" {
		return fmt.Errorf("notifier: no recipient address")
	}

	log := n.logger.WithFields(logrus.Fields{
		"component": "email_notifier",
		"to":        msg.To,
	})

	payload := n.buildMessage(msg)
	addr := net.JoinHostPort(n.config.Host, strconv.Itoa(n.config.Port))

	var auth smtp.Auth
	if n.config.Username != "" {
		auth = smtp.PlainAuth("", n.config.Username, n.config.Password, n.config.Host)
	}

	// net/smtp has no context support; honor cancellation by checking
	// before the dial, the send itself is bounded by the SMTP server.
	select {
	case <-ctx.Done():
		return fmt.Errorf("notifier: send cancelled: %w", ctx.Err())
	default:
	}

	if err := smtp.SendMail(addr, auth, n.config.From, []string{msg.To}, payload); err != nil {
		log.WithError(err).Error("Failed to deliver notification")
		return fmt.Errorf("notifier: delivery failed: %w", err)
	}

	log.Info("Notification delivered")
	return nil
}

func (n *EmailNotifier) buildMessage(msg escalation.Message) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", n.config.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
