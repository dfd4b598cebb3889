package notification

import (
	"encoding/json"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"Go2GateSpectra/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailNotifier_Send(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{Host: "mail.local", Port: 25, From: "gates@airport", To: "ops@airport, lead@airport"})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}
	require.NoError(t, n.Send("SLA breach", "<p>ratio 0.6</p>"))

	assert.Equal(t, "mail.local:25", gotAddr)
	assert.Equal(t, []string{"ops@airport", "lead@airport"}, gotTo)
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\n<p>ratio 0.6</p>"))
	assert.Contains(t, gotMsg, "Subject: SLA breach\r\n")
	assert.Equal(t, "email", n.Name())
}

func TestEmailNotifier_Errors(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{Host: "mail.local", Port: 25})
	assert.ErrorContains(t, n.Send("s", "b"), "no email recipients")

	n = NewEmailNotifier(config.SMTPConfig{Host: "mail.local", Port: 25, To: "ops@airport"})
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	assert.ErrorContains(t, n.Send("s", "b"), "refused")
}

type recorder struct {
	subject string
	data    []byte
}

func (r *recorder) Publish(subject string, data []byte) error {
	r.subject, r.data = subject, data
	return nil
}

func TestNATSNotifier_Send(t *testing.T) {
	rec := &recorder{}
	n := NewNATSNotifier(rec, "gatespectra.alerts")
	n.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, n.Send("SLA breach", "body"))
	assert.Equal(t, "gatespectra.alerts", rec.subject)

	var alert Alert
	require.NoError(t, json.Unmarshal(rec.data, &alert))
	assert.Equal(t, "SLA breach", alert.Subject)
	assert.Equal(t, 2024, alert.SentAt.Year())
}
