package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"storefront-service/app/domain"
	"storefront-service/config"
	"strings"

	"github.com/shopspring/decimal"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpNotifier struct {
	addr     string
	auth     smtp.Auth
	from     string
	sendMail sendMailFunc
}

func NewSmtpNotifier(cfg config.SmtpConfig) domain.Notifier {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &smtpNotifier{
		addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		auth:     auth,
		from:     cfg.From,
		sendMail: smtp.SendMail,
	}
}

func (n *smtpNotifier) Notify(ctx context.Context, data domain.OrderNotification) error {
	if data.Recipient == "" {
		return fmt.Errorf("%w: notification without recipient", domain.ErrValidation)
	}

	msg := buildMessage(n.from, data)
	if err := n.sendMail(n.addr, n.auth, n.from, []string{data.Recipient}, msg); err != nil {
		slog.ErrorContext(ctx, "[smtpNotifier] Notify", "sendMail", err)
		return err
	}

	slog.InfoContext(ctx, "[smtpNotifier] Notify", "order_id", data.OrderID, "kind", data.Kind)
	return nil
}

func formatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(domain.CurrencyPlaces)
}

func buildMessage(from string, data domain.OrderNotification) []byte {
	var subject string
	var body strings.Builder

	switch data.Kind {
	case domain.NotificationOrderConfirmation:
		subject = fmt.Sprintf("Order %s confirmed", data.OrderID)
		fmt.Fprintf(&body, "Thank you for your order %s.\r\n\r\n", data.OrderID)
		for _, item := range data.Items {
			fmt.Fprintf(&body, "%d x %s  %s\r\n", item.Quantity, item.Name, formatAmount(item.Subtotal()))
		}
		fmt.Fprintf(&body, "\r\nTotal: %s\r\n", formatAmount(data.Total))
	case domain.NotificationTrackingUpdated:
		subject = fmt.Sprintf("Tracking number for order %s", data.OrderID)
		fmt.Fprintf(&body, "Your order %s is %s.\r\n", data.OrderID, data.Status)
		if data.TrackingNumber != nil {
			fmt.Fprintf(&body, "Tracking number: %s\r\n", *data.TrackingNumber)
		}
	default:
		subject = fmt.Sprintf("Order %s is now %s", data.OrderID, data.Status)
		fmt.Fprintf(&body, "Your order %s is now %s.\r\n", data.OrderID, data.Status)
		if data.TrackingNumber != nil && *data.TrackingNumber != "" {
			fmt.Fprintf(&body, "Tracking number: %s\r\n", *data.TrackingNumber)
		}
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", data.Recipient)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(body.String())
	return []byte(msg.String())
}
