package orders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// flexNumber decodes a JSON number or a numeric string; storefront clients
// send both. Empty means the field was absent or null.
type flexNumber string

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexNumber(strings.TrimSpace(s))
		return nil
	}
	*f = flexNumber(b)
	return nil
}

// CreateOrderRequest is the raw, duck-typed storefront payload. Every legacy
// alias the clients send is declared here and collapsed into one canonical
// OrderIntent by BuildIntent; nothing else in the pipeline sees aliases.
type CreateOrderRequest struct {
	UserID          flexNumber       `json:"userId"`
	IDUser          flexNumber       `json:"id_user"`
	Customer        *CustomerDetails `json:"customer"`
	CustomerDetails *CustomerDetails `json:"customer_details"`
	Items           []LineInput      `json:"items"`
	Total           flexNumber       `json:"total"`
	PaymentType     string           `json:"paymentType"`
	TypePayment     string           `json:"type_payment"`
}

// LineInput accepts the quantity and product-id aliases observed in the wild.
type LineInput struct {
	ProductID    flexNumber `json:"productId"`
	ProductIDAlt flexNumber `json:"product_id"`
	ID           flexNumber `json:"id"`
	Product      flexNumber `json:"product"`
	Quantity     flexNumber `json:"quantity"`
	Qty          flexNumber `json:"qty"`
	Cantidad     flexNumber `json:"cantidad"`
	UnitPrice    float64    `json:"price"`
	UnitPriceAlt float64    `json:"unitPrice"`
	Title        string     `json:"title"`
}

// IntentOptions select the endpoint flavor. ForceUserID pins the owner
// server-side (the /me endpoint); EnforceSameUser additionally requires an
// authenticated caller.
type IntentOptions struct {
	ForceUserID     int64
	EnforceSameUser bool
}

// parseID returns the value as a positive id, or 0 when it is absent or not a
// positive integer.
func parseID(n flexNumber) int64 {
	if n == "" {
		return 0
	}
	id, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func firstNumber(ns ...flexNumber) flexNumber {
	for _, n := range ns {
		if n != "" {
			return n
		}
	}
	return ""
}

// BuildIntent normalizes and validates a purchase request into an OrderIntent.
// It is a pure transformation: no storage is touched and no transaction is
// opened until the intent exists.
func BuildIntent(req *CreateOrderRequest, auth AuthContext, opts IntentOptions) (*OrderIntent, error) {
	tokenUserID := auth.UserID

	if opts.EnforceSameUser && tokenUserID == 0 {
		return nil, AuthErr("Token de usuario requerido para crear ordenes")
	}
	if !auth.IsAdmin && tokenUserID == 0 && opts.ForceUserID == 0 {
		return nil, AuthErr("Token de usuario requerido para crear ordenes")
	}

	// Owner resolution priority: server-forced id, body id, token id.
	idUser := opts.ForceUserID
	if idUser == 0 {
		idUser = parseID(firstNumber(req.UserID, req.IDUser))
	}
	if idUser == 0 {
		idUser = tokenUserID
	}
	if idUser == 0 {
		return nil, Validationf("id_user es requerido")
	}

	if (opts.EnforceSameUser || !auth.IsAdmin) && tokenUserID != 0 && idUser != tokenUserID {
		return nil, Forbidden("No puedes crear ordenes para otros usuarios")
	}

	customer := req.CustomerDetails
	if customer == nil {
		customer = req.Customer
	}
	if customer == nil || customer.Name == "" || customer.Email == "" {
		return nil, Validationf("Datos del cliente incompletos")
	}

	if len(req.Items) == 0 {
		return nil, Validationf("La orden debe incluir productos")
	}

	total, err := strconv.ParseFloat(string(req.Total), 64)
	if req.Total == "" || err != nil || math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return nil, Validationf("El total debe ser un numero positivo")
	}

	typePayment := req.PaymentType
	if typePayment == "" {
		typePayment = req.TypePayment
	}
	if typePayment == "" {
		typePayment = customer.PaymentMethod
	}
	if typePayment == "" {
		return nil, Validationf("type_payment es requerido")
	}

	lines := make([]OrderLine, 0, len(req.Items))
	for i, item := range req.Items {
		qty, err := strconv.Atoi(string(firstNumber(item.Quantity, item.Qty, item.Cantidad)))
		if err != nil || qty <= 0 {
			e := Validationf("quantity invalido en item %d", i+1)
			e.Details = map[string]any{"index": i + 1}
			return nil, e
		}

		productID := parseID(firstNumber(item.ProductID, item.ProductIDAlt, item.ID, item.Product))
		if productID == 0 {
			e := Validationf("productId es requerido en item %d", i+1)
			e.Details = map[string]any{"index": i + 1}
			return nil, e
		}

		price := item.UnitPrice
		if price == 0 {
			price = item.UnitPriceAlt
		}
		lines = append(lines, OrderLine{
			ID:        productID,
			ProductID: productID,
			Quantity:  qty,
			UnitPrice: price,
			Title:     item.Title,
		})
	}

	// The stored customer document always carries the resolved payment method.
	normalized := *customer
	if normalized.PaymentMethod == "" {
		normalized.PaymentMethod = typePayment
	}

	return &OrderIntent{
		UserID:      idUser,
		Customer:    normalized,
		Lines:       lines,
		Total:       total,
		TypePayment: PaymentType(typePayment),
	}, nil
}
