package broker

import (
	"context"
	"encoding/json"
	"log/slog"
	"storefront-service/app/domain"
)

type orderNotifier struct {
	js      publisher
	subject string
}

// NewOrderNotifier hands notifications to a mailer consuming the order_status subject.
func NewOrderNotifier(js publisher, streamName string) domain.Notifier {
	return &orderNotifier{
		js:      js,
		subject: subject(streamName, "order_status"),
	}
}

func (n *orderNotifier) Notify(ctx context.Context, data domain.OrderNotification) error {
	msg, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "[orderNotifier] Notify", "json.Marshal", err)
		return err
	}

	if _, err = n.js.Publish(ctx, n.subject, msg); err != nil {
		slog.ErrorContext(ctx, "[orderNotifier] Notify", "Publish", err)
		return err
	}

	slog.InfoContext(ctx, "[orderNotifier] Notify", "subject", n.subject, "order_id", data.OrderID, "kind", data.Kind)
	return nil
}

type logNotifier struct{}

func NewLogNotifier() domain.Notifier {
	return logNotifier{}
}

func (logNotifier) Notify(ctx context.Context, data domain.OrderNotification) error {
	slog.InfoContext(ctx, "[logNotifier] Notify",
		"kind", data.Kind, "recipient", data.Recipient, "order_id", data.OrderID, "status", data.Status)
	return nil
}
