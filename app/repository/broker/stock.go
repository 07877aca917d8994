package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"storefront-service/app/domain"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// publisher is the part of jetstream.JetStream the brokers use.
type publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

func subject(stream, event string) string {
	return strings.ToLower(stream) + "." + event
}

type stockBroker struct {
	js      publisher
	subject string
}

func NewStockBrokerPublisher(js publisher, streamName string) domain.BrokerPublisher {
	return &stockBroker{
		js:      js,
		subject: subject(streamName, "available"),
	}
}

func (s *stockBroker) PublishStockAvailable(ctx context.Context, data domain.StockMessage) error {
	msg, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockAvailable", "json.Marshal", err)
		return err
	}

	if _, err = s.js.Publish(ctx, s.subject, msg); err != nil {
		slog.ErrorContext(ctx, "[stockBroker] PublishStockAvailable", "Publish", err)
		return err
	}

	slog.InfoContext(ctx, "[stockBroker] PublishStockAvailable", "subject", s.subject, "product_id", data.ProductID)
	return nil
}

type logStockPublisher struct{}

// NewLogStockPublisher only logs stock events. It is used when no NATS server is configured.
func NewLogStockPublisher() domain.BrokerPublisher {
	return logStockPublisher{}
}

func (logStockPublisher) PublishStockAvailable(ctx context.Context, data domain.StockMessage) error {
	slog.InfoContext(ctx, "[logStockPublisher] PublishStockAvailable",
		"product_id", data.ProductID, "available", data.Available, "low_stock", data.LowStock)
	return nil
}
