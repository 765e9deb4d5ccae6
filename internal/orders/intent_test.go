package orders

import (
	"encoding/json"
	"errors"
	"testing"
)

func decodeReq(t *testing.T, body string) *CreateOrderRequest {
	t.Helper()
	var req CreateOrderRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return &req
}

func wantKind(t *testing.T, err error, kind Kind, message string) *Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", message)
	}
	var oe *Error
	if !errors.As(err, &oe) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if oe.Kind != kind {
		t.Errorf("kind = %d, want %d", oe.Kind, kind)
	}
	if message != "" && oe.Message != message {
		t.Errorf("message = %q, want %q", oe.Message, message)
	}
	return oe
}

const validBody = `{
	"id_user": "7",
	"customer_details": {"name": "Ana", "email": "ana@example.com"},
	"items": [{"productId": 5, "quantity": 2, "price": 49.9, "title": "Poleron"}],
	"total": 99.8,
	"type_payment": "card"
}`

func TestBuildIntentValid(t *testing.T) {
	req := decodeReq(t, validBody)
	intent, err := BuildIntent(req, AuthContext{UserID: 7}, IntentOptions{})
	if err != nil {
		t.Fatalf("BuildIntent: %v", err)
	}
	if intent.UserID != 7 {
		t.Errorf("UserID = %d, want 7", intent.UserID)
	}
	if intent.TypePayment != PaymentCard {
		t.Errorf("TypePayment = %q, want card", intent.TypePayment)
	}
	if intent.Total != 99.8 {
		t.Errorf("Total = %v, want 99.8", intent.Total)
	}
	if len(intent.Lines) != 1 {
		t.Fatalf("Lines = %d, want 1", len(intent.Lines))
	}
	l := intent.Lines[0]
	if l.ProductID != 5 || l.ID != 5 || l.Quantity != 2 || l.UnitPrice != 49.9 || l.Title != "Poleron" {
		t.Errorf("unexpected line: %+v", l)
	}
	if intent.Customer.PaymentMethod != "card" {
		t.Errorf("PaymentMethod = %q, want defaulted to card", intent.Customer.PaymentMethod)
	}
}

func TestBuildIntentItemAliases(t *testing.T) {
	req := decodeReq(t, `{
		"userId": 3,
		"customer": {"name": "Luis", "email": "luis@example.com", "paymentMethod": "yape"},
		"items": [
			{"product_id": "10", "qty": "1"},
			{"id": 11, "cantidad": 4},
			{"product": 10, "quantity": 2}
		],
		"total": 0
	}`)
	intent, err := BuildIntent(req, AuthContext{UserID: 3}, IntentOptions{})
	if err != nil {
		t.Fatalf("BuildIntent: %v", err)
	}
	if intent.TypePayment != PaymentYape {
		t.Errorf("TypePayment = %q, want yape (from customer paymentMethod)", intent.TypePayment)
	}
	demand := intent.Demand()
	if demand[10] != 3 || demand[11] != 4 {
		t.Errorf("demand = %v, want map[10:3 11:4]", demand)
	}
}

func TestBuildIntentPaymentPriority(t *testing.T) {
	req := decodeReq(t, `{
		"id_user": 1,
		"customer_details": {"name": "A", "email": "a@b.c", "paymentMethod": "cash"},
		"items": [{"id": 1, "quantity": 1}],
		"total": 10,
		"paymentType": "card",
		"type_payment": "yape"
	}`)
	intent, err := BuildIntent(req, AuthContext{UserID: 1}, IntentOptions{})
	if err != nil {
		t.Fatalf("BuildIntent: %v", err)
	}
	if intent.TypePayment != PaymentCard {
		t.Errorf("TypePayment = %q, want paymentType to win", intent.TypePayment)
	}
	// The caller supplied a paymentMethod, so it is kept as-is.
	if intent.Customer.PaymentMethod != "cash" {
		t.Errorf("PaymentMethod = %q, want cash", intent.Customer.PaymentMethod)
	}
}

func TestBuildIntentAuthRequired(t *testing.T) {
	req := decodeReq(t, validBody)

	_, err := BuildIntent(req, AuthContext{}, IntentOptions{})
	wantKind(t, err, KindAuth, "Token de usuario requerido para crear ordenes")

	_, err = BuildIntent(req, AuthContext{IsAdmin: true}, IntentOptions{EnforceSameUser: true})
	wantKind(t, err, KindAuth, "Token de usuario requerido para crear ordenes")
}

func TestBuildIntentCrossUserForbidden(t *testing.T) {
	req := decodeReq(t, validBody) // body says user 7
	_, err := BuildIntent(req, AuthContext{UserID: 9}, IntentOptions{})
	wantKind(t, err, KindForbidden, "No puedes crear ordenes para otros usuarios")
}

func TestBuildIntentAdminCreatesForOtherUser(t *testing.T) {
	req := decodeReq(t, validBody)
	intent, err := BuildIntent(req, AuthContext{IsAdmin: true}, IntentOptions{})
	if err != nil {
		t.Fatalf("BuildIntent: %v", err)
	}
	if intent.UserID != 7 {
		t.Errorf("UserID = %d, want body-supplied 7", intent.UserID)
	}
}

func TestBuildIntentAdminWithoutUserID(t *testing.T) {
	req := decodeReq(t, `{
		"customer_details": {"name": "A", "email": "a@b.c"},
		"items": [{"id": 1, "quantity": 1}],
		"total": 10,
		"type_payment": "cash"
	}`)
	_, err := BuildIntent(req, AuthContext{IsAdmin: true}, IntentOptions{})
	wantKind(t, err, KindValidation, "id_user es requerido")
}

func TestBuildIntentForcedUserWins(t *testing.T) {
	req := decodeReq(t, validBody) // body says user 7
	intent, err := BuildIntent(req, AuthContext{IsAdmin: true}, IntentOptions{ForceUserID: 9})
	if err != nil {
		t.Fatalf("BuildIntent: %v", err)
	}
	if intent.UserID != 9 {
		t.Errorf("UserID = %d, want forced 9 over body 7", intent.UserID)
	}
}

func TestBuildIntentIncompleteCustomer(t *testing.T) {
	req := decodeReq(t, `{
		"id_user": 1,
		"customer_details": {"name": "", "email": "a@b.c"},
		"items": [{"id": 1, "quantity": 1}],
		"total": 10,
		"type_payment": "cash"
	}`)
	_, err := BuildIntent(req, AuthContext{UserID: 1}, IntentOptions{})
	wantKind(t, err, KindValidation, "Datos del cliente incompletos")
}

func TestBuildIntentEmptyItems(t *testing.T) {
	req := decodeReq(t, `{
		"id_user": 1,
		"customer_details": {"name": "A", "email": "a@b.c"},
		"items": [],
		"total": 10,
		"type_payment": "cash"
	}`)
	_, err := BuildIntent(req, AuthContext{UserID: 1}, IntentOptions{})
	wantKind(t, err, KindValidation, "La orden debe incluir productos")
}

func TestBuildIntentBadTotal(t *testing.T) {
	for _, total := range []string{`-1`, `null`, `"abc"`} {
		req := decodeReq(t, `{
			"id_user": 1,
			"customer_details": {"name": "A", "email": "a@b.c"},
			"items": [{"id": 1, "quantity": 1}],
			"total": `+total+`,
			"type_payment": "cash"
		}`)
		_, err := BuildIntent(req, AuthContext{UserID: 1}, IntentOptions{})
		wantKind(t, err, KindValidation, "El total debe ser un numero positivo")
	}
}

func TestBuildIntentMissingPayment(t *testing.T) {
	req := decodeReq(t, `{
		"id_user": 1,
		"customer_details": {"name": "A", "email": "a@b.c"},
		"items": [{"id": 1, "quantity": 1}],
		"total": 10
	}`)
	_, err := BuildIntent(req, AuthContext{UserID: 1}, IntentOptions{})
	wantKind(t, err, KindValidation, "type_payment es requerido")
}

func TestBuildIntentBadLineIndexes(t *testing.T) {
	req := decodeReq(t, `{
		"id_user": 1,
		"customer_details": {"name": "A", "email": "a@b.c"},
		"items": [{"id": 1, "quantity": 1}, {"id": 2, "quantity": 0}],
		"total": 10,
		"type_payment": "cash"
	}`)
	_, err := BuildIntent(req, AuthContext{UserID: 1}, IntentOptions{})
	oe := wantKind(t, err, KindValidation, "quantity invalido en item 2")
	if oe.Details["index"] != 2 {
		t.Errorf("details index = %v, want 2", oe.Details["index"])
	}

	req = decodeReq(t, `{
		"id_user": 1,
		"customer_details": {"name": "A", "email": "a@b.c"},
		"items": [{"quantity": 1}],
		"total": 10,
		"type_payment": "cash"
	}`)
	_, err = BuildIntent(req, AuthContext{UserID: 1}, IntentOptions{})
	wantKind(t, err, KindValidation, "productId es requerido en item 1")
}
