package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/classyshop/go-order-intake/internal/orders"
)

type stubRenderer struct {
	out   []byte
	err   error
	calls int
}

func (r *stubRenderer) Render(o *orders.Order) ([]byte, error) {
	r.calls++
	return r.out, r.err
}

type stubSender struct {
	err     error
	calls   int
	to      string
	invoice []byte
}

func (s *stubSender) Send(ctx context.Context, to string, o *orders.Order, invoice []byte) error {
	s.calls++
	s.to = to
	s.invoice = invoice
	return s.err
}

func TestDispatchSendsInvoice(t *testing.T) {
	r := &stubRenderer{out: []byte("%PDF-fake")}
	s := &stubSender{}
	d := &Dispatcher{Invoices: r, Mail: s}

	if err := d.Dispatch(context.Background(), invoiceOrder()); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if r.calls != 1 || s.calls != 1 {
		t.Errorf("render calls = %d, send calls = %d, want 1 each", r.calls, s.calls)
	}
	if s.to != "ana@example.com" {
		t.Errorf("recipient = %q", s.to)
	}
	if !bytes.Equal(s.invoice, r.out) {
		t.Error("rendered invoice was not the one attached")
	}
}

func TestDispatchSkipsWithoutEmail(t *testing.T) {
	r := &stubRenderer{}
	s := &stubSender{}
	d := &Dispatcher{Invoices: r, Mail: s}

	o := invoiceOrder()
	o.Customer.Email = ""
	if err := d.Dispatch(context.Background(), o); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if r.calls != 0 || s.calls != 0 {
		t.Errorf("render calls = %d, send calls = %d, want 0 each", r.calls, s.calls)
	}
}

func TestDispatchRenderFailure(t *testing.T) {
	renderErr := errors.New("font missing")
	s := &stubSender{}
	d := &Dispatcher{Invoices: &stubRenderer{err: renderErr}, Mail: s}

	if err := d.Dispatch(context.Background(), invoiceOrder()); !errors.Is(err, renderErr) {
		t.Fatalf("err = %v, want render error", err)
	}
	if s.calls != 0 {
		t.Error("mail must not be sent when the invoice fails to render")
	}
}

func TestDispatchSendFailure(t *testing.T) {
	sendErr := errors.New("smtp down")
	d := &Dispatcher{Invoices: &stubRenderer{out: []byte("%PDF-fake")}, Mail: &stubSender{err: sendErr}}

	if err := d.Dispatch(context.Background(), invoiceOrder()); !errors.Is(err, sendErr) {
		t.Fatalf("err = %v, want send error", err)
	}
}
