package notify

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/classyshop/go-order-intake/internal/orders"
)

// InvoiceRenderer turns a committed order into an invoice document.
type InvoiceRenderer interface {
	Render(o *orders.Order) ([]byte, error)
}

// PDFRenderer renders the ClassyShop A4 invoice.
type PDFRenderer struct{}

func (PDFRenderer) Render(o *orders.Order) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(120, 10, "ClassyShop", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 10, fmt.Sprintf("Fecha: %s", time.Now().Format("02/01/2006")), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Factura de Pedido", "", 1, "L", false, 0, "")
	pdf.Ln(4)
	pdf.SetDrawColor(204, 204, 204)
	x, y := pdf.GetXY()
	pdf.Line(x, y, 195, y)
	pdf.Ln(4)

	// Customer block
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(120, 8, "Facturado a:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Orden #%d", o.ID), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	name := o.Customer.Name
	if name == "" {
		name = "Cliente"
	}
	pdf.CellFormat(120, 5, name, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Fecha: %s", o.OrderDate.Format("02/01/2006")), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 5, orEmpty(o.Customer.Email), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, orEmpty(o.Customer.Address), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, PaymentLabel(o), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Items table
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(85, 7, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Cant.", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, "Precio Unit.", "B", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range o.Items {
		title := item.Title
		if title == "" {
			title = "Producto"
		}
		lineTotal := float64(item.Quantity) * item.UnitPrice
		pdf.CellFormat(85, 7, title, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", item.Quantity), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("S/.%.2f", item.UnitPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("S/.%.2f", lineTotal), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("Total Pagado: S/.%.2f", o.Total), "T", 1, "R", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(136, 136, 136)
	pdf.CellFormat(0, 6, "Gracias por tu compra en ClassyShop!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func orEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// PaymentLabel is the human-readable payment line, including the
// method-specific detail fields when present.
func PaymentLabel(o *orders.Order) string {
	method := string(o.TypePayment)
	if method == "" {
		method = o.Customer.PaymentMethod
	}

	label := "Metodo de Pago: "
	switch orders.PaymentType(strings.ToLower(strings.TrimSpace(method))) {
	case orders.PaymentCard:
		label += "Tarjeta"
	case orders.PaymentYape:
		label += "Yape"
		if o.Customer.YapePhone != "" {
			label += fmt.Sprintf(" (%s)", o.Customer.YapePhone)
		}
	case orders.PaymentPagoEfectivo:
		label += "PagoEfectivo"
		if o.Customer.PagoBranch != "" {
			label += fmt.Sprintf(" (Punto: %s)", branchName(o.Customer.PagoBranch))
		}
	case orders.PaymentCash:
		label += "Efectivo"
	default:
		if method == "" {
			label += "No especificado"
		} else {
			label += method
		}
	}
	return label
}

func branchName(branch string) string {
	switch branch {
	case "bcp":
		return "BCP"
	case "agente_pe":
		return "Agente PE"
	case "tienda":
		return "Tienda"
	default:
		return branch
	}
}
