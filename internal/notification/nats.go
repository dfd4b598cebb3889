package notification

import (
	"encoding/json"
	"fmt"
	"time"
)

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Alert is the JSON message published for every alert summary.
type Alert struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

// NATSNotifier publishes alert summaries to a NATS subject.
type NATSNotifier struct {
	pub     Publisher
	subject string
	now     func() time.Time
}

// NewNATSNotifier publishes alerts on subject through pub, usually a *nats.Conn.
func NewNATSNotifier(pub Publisher, subject string) *NATSNotifier {
	return &NATSNotifier{pub: pub, subject: subject, now: time.Now}
}

func (n *NATSNotifier) Name() string { return "nats" }

func (n *NATSNotifier) Send(subject, body string) error {
	data, err := json.Marshal(Alert{Subject: subject, Body: body, SentAt: n.now().UTC()})
	if err != nil {
		return err
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish alert to %s: %w", n.subject, err)
	}
	return nil
}
