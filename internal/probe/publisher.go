package probe

import (
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher is responsible for publishing run summaries to a NATS topic.
type Publisher struct {
	nc      Conn
	subject string
	log     *logger.Logger
}

// NewPublisher publishes run summaries on subject through nc, usually a *nats.Conn.
func NewPublisher(nc Conn, subject string, log *logger.Logger) *Publisher {
	return &Publisher{nc: nc, subject: subject, log: log.Named("publisher")}
}

// Publish serializes the run summary to Protobuf and publishes it to the configured NATS subject.
func (p *Publisher) Publish(rep *report.Report) error {
	data, err := EncodeSummary(rep)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return err
	}
	p.log.Info("Run summary published", logger.String("subject", p.subject), logger.String("run_id", rep.RunID))
	return nil
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			p.log.Warn("Failed to drain NATS connection", logger.Error(err))
			return
		}
		p.log.Info("NATS connection drained and closed")
	}
}
