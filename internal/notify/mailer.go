package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/classyshop/go-order-intake/internal/orders"
)

// MessageSender delivers the order confirmation to the customer.
type MessageSender interface {
	Send(ctx context.Context, recipient string, o *orders.Order, invoice []byte) error
}

// SMTPSender sends the confirmation mail with the invoice PDF attached.
type SMTPSender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s *SMTPSender) Send(ctx context.Context, recipient string, o *orders.Order, invoice []byte) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat("ClassyShop", s.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", s.From, err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	msg.Subject(fmt.Sprintf("Confirmación de tu pedido #%d", o.ID))
	msg.SetBodyString(mail.TypeTextHTML, confirmationBody(o))
	if err := msg.AttachReader(fmt.Sprintf("pedido_%d.pdf", o.ID), bytes.NewReader(invoice),
		mail.WithFileContentType(mail.ContentType("application/pdf"))); err != nil {
		return fmt.Errorf("attach invoice: %w", err)
	}

	opts := []mail.Option{
		mail.WithPort(s.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.Username),
		mail.WithPassword(s.Password),
	}
	if s.Port == 465 {
		opts = append(opts, mail.WithSSL())
	}
	client, err := mail.NewClient(s.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func confirmationBody(o *orders.Order) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; border: 1px solid #ddd; padding: 20px; border-radius: 8px;">
  <h1 style="color: #333; text-align: center;">¡Gracias por tu compra!</h1>
  <p style="color: #555;">Hola %s,</p>
  <p style="color: #555;">Hemos recibido tu pedido #%d. Adjuntamos la confirmación detallada en PDF.</p>
  <p style="font-size: 18px; font-weight: bold; text-align: center; background: #f4f4f4; padding: 10px; border-radius: 4px;">Total Pagado: S/.%.2f</p>
  <hr style="border: 0; border-top: 1px solid #eee; margin: 20px 0;" />
  <p style="font-size: 12px; color: #999; text-align: center;">&copy; %d ClassyShop. Todos los derechos reservados.</p>
</div>`,
		o.Customer.Name, o.ID, o.Total, time.Now().Year())
}
