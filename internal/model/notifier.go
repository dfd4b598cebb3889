package model

// Notifier delivers an alert summary over some channel (email, NATS).
type Notifier interface {
	Name() string
	Send(subject, body string) error
}
