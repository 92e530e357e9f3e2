package notifier

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkarpenko/ops_awareness_system/internal/escalation"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

func TestEmailConfig_Validate(t *testing.T) {
	valid := EmailConfig{Host: "smtp.example.com", Port: 587, From: "alerts@example.com"}
	assert.NoError(t, valid.Validate())

	noHost := valid
	noHost.Host = ""
	assert.Error(t, noHost.Validate())

	noPort := valid
	noPort.Port = 0
	assert.Error(t, noPort.Validate())

	noFrom := valid
	noFrom.From = ""
	assert.Error(t, noFrom.Validate())
}

func TestNewEmailNotifier_RejectsInvalidConfig(t *testing.T) {
	_, err := NewEmailNotifier(EmailConfig{}, testLogger())
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid email config")
}

func TestEmailNotifier_Send_NoRecipient(t *testing.T) {
	n, err := NewEmailNotifier(EmailConfig{Host: "smtp.example.com", Port: 587, From: "alerts@example.com"}, testLogger())
	require.NoError(t, err)

	err = n.Send(context.Background(), escalation.Message{Subject: "no recipient"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "no recipient")
}

func TestEmailNotifier_Send_CancelledContext(t *testing.T) {
	n, err := NewEmailNotifier(EmailConfig{Host: "smtp.example.com", Port: 587, From: "alerts@example.com"}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = n.Send(ctx, escalation.Message{To: "ops@example.com", Subject: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildMessage_Headers(t *testing.T) {
	n, err := NewEmailNotifier(EmailConfig{Host: "smtp.example.com", Port: 587, From: "alerts@example.com"}, testLogger())
	require.NoError(t, err)

	payload := string(n.buildMessage(escalation.Message{
		To:      "ops@example.com",
		Subject: "EMERGENCY ALERT: J. Doe",
		Body:    "Panic button activated.",
	}))

	assert.Contains(t, payload, "From: alerts@example.com\r\n")
	assert.Contains(t, payload, "To: ops@example.com\r\n")
	assert.Contains(t, payload, "Subject: EMERGENCY ALERT: J. Doe\r\n")
	assert.Contains(t, payload, "\r\n\r\nPanic button activated.")
}
