package orders

import "time"

type PaymentType string

const (
	PaymentCard         PaymentType = "card"
	PaymentYape         PaymentType = "yape"
	PaymentPagoEfectivo PaymentType = "pagoefectivo"
	PaymentCash         PaymentType = "cash"
)

// CustomerDetails travels with the order as a JSON document. The payment
// sub-fields are only meaningful for their respective payment types.
type CustomerDetails struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Address       string `json:"address,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	YapePhone     string `json:"yapePhone,omitempty"`
	PagoBranch    string `json:"pagoBranch,omitempty"`
}

// OrderLine is one normalized line item. ID mirrors ProductID for storefront
// compatibility; display order follows the request, processing order does not.
type OrderLine struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"price"`
	Title     string  `json:"title,omitempty"`
}

// OrderIntent is the canonical, validated form of a purchase request. It is
// produced by BuildIntent and consumed by Repo.Create; nothing downstream
// looks at the raw request again.
type OrderIntent struct {
	UserID      int64
	Customer    CustomerDetails
	Lines       []OrderLine
	Total       float64
	TypePayment PaymentType
}

// Demand aggregates duplicate lines per product. It is computed before any
// lock is taken.
func (in *OrderIntent) Demand() map[int64]int {
	m := make(map[int64]int, len(in.Lines))
	for _, l := range in.Lines {
		m[l.ProductID] += l.Quantity
	}
	return m
}

type Order struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"id_user"`
	OrderDate   time.Time       `json:"order_date"`
	Customer    CustomerDetails `json:"customer_details"`
	Items       []OrderLine     `json:"items"`
	Total       float64         `json:"total"`
	TypePayment PaymentType     `json:"type_payment"`
	User        *OrderUser      `json:"user,omitempty"`
}

// OrderUser is the joined owner snapshot returned on reads.
type OrderUser struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
}

// AuthContext is what the authentication layer hands the pipeline. UserID is
// zero for admin-token callers.
type AuthContext struct {
	UserID  int64
	IsAdmin bool
}
