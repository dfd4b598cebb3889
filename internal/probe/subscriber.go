package probe

import (
	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/pkg/logger"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/types/known/structpb"
)

// SummaryHandler is a function that processes a received run summary.
type SummaryHandler func(summary *structpb.Struct)

// Subscriber is responsible for subscribing to a NATS subject and processing messages.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	log     *logger.Logger
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.NATSConfig, log *logger.Logger) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, err
	}
	log.Info("Connected to NATS server", logger.String("url", cfg.URL))
	return &Subscriber{nc: nc, subject: cfg.Subject, log: log.Named("subscriber")}, nil
}

// Start subscribes to the given subject and starts processing messages with the provided handler.
func (s *Subscriber) Start(handler SummaryHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		summary, err := DecodeSummary(msg.Data)
		if err != nil {
			s.log.Warn("Error unmarshalling protobuf", logger.Error(err))
			return
		}
		handler(summary)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	s.log.Info("Subscribed, waiting for messages", logger.String("subject", s.subject))
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		s.log.Info("NATS connection closed")
	}
}
