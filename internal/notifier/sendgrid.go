package notifier

import (
	"context"
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/stefanjelkic00/TechShop/internal/domain"
)

// SendGridNotifier sends order mail through SendGrid. Callers treat
// both sends as fire-and-forget; an error here only ever ends up in a
// log line.
type SendGridNotifier struct {
	apiKey string
	from   string
}

func NewSendGridNotifier(apiKey, from string) *SendGridNotifier {
	return &SendGridNotifier{apiKey: apiKey, from: from}
}

func (n *SendGridNotifier) SendOrderConfirmation(ctx context.Context, email string, order *domain.Order) error {
	subject := fmt.Sprintf("Order Confirmation - Order #%s", order.ID)
	body := fmt.Sprintf("Hello, your order has been successfully placed!\n\n"+
		"Order ID: %s\nTotal Price: %s\nThank you for shopping with us!",
		order.ID, order.TotalPrice.StringFixed(2))
	return n.send(email, subject, body)
}

func (n *SendGridNotifier) SendOrderCancellation(ctx context.Context, email string, order *domain.Order) error {
	subject := fmt.Sprintf("Order Cancelled - Order #%s", order.ID)
	body := fmt.Sprintf("Hello, your order has been cancelled.\n\n"+
		"Order ID: %s\nTotal Price: %s",
		order.ID, order.TotalPrice.StringFixed(2))
	return n.send(email, subject, body)
}

func (n *SendGridNotifier) send(to, subject, body string) error {
	if n.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}

	fromEmail := mail.NewEmail("TechShop", n.from)
	toEmail := mail.NewEmail("", to)
	message := mail.NewSingleEmail(fromEmail, subject, toEmail, body, fmt.Sprintf("<pre>%s</pre>", body))

	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", response.StatusCode, response.Body)
	}

	log.Printf("mail sent: status=%d to=%s subject=%q", response.StatusCode, to, subject)
	return nil
}
