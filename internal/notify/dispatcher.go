package notify

import (
	"context"
	"log/slog"

	"github.com/classyshop/go-order-intake/internal/orders"
)

// Dispatcher runs the post-commit confirmation sub-flow: render the invoice,
// send the mail. It must only ever be called with a committed order; a failure
// here is logged and reported to the caller for bookkeeping, never retried,
// and never affects the order itself.
type Dispatcher struct {
	Invoices InvoiceRenderer
	Mail     MessageSender
	Log      *slog.Logger
}

func (d *Dispatcher) Dispatch(ctx context.Context, o *orders.Order) error {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	if o.Customer.Email == "" {
		log.Info("order has no customer email, skipping confirmation", "order_id", o.ID)
		return nil
	}

	invoice, err := d.Invoices.Render(o)
	if err != nil {
		log.Error("invoice render failed", "order_id", o.ID, "error", err)
		return err
	}

	if err := d.Mail.Send(ctx, o.Customer.Email, o, invoice); err != nil {
		log.Error("confirmation mail failed", "order_id", o.ID, "recipient", o.Customer.Email, "error", err)
		return err
	}

	log.Info("confirmation mail sent", "order_id", o.ID, "recipient", o.Customer.Email)
	return nil
}
