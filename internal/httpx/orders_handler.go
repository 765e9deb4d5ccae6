package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/classyshop/go-order-intake/internal/kafka"
	"github.com/classyshop/go-order-intake/internal/metrics"
	"github.com/classyshop/go-order-intake/internal/orders"
	"github.com/classyshop/go-order-intake/internal/redisx"
)

// OrderStore is the transactional side of the pipeline.
type OrderStore interface {
	Create(ctx context.Context, intent *orders.OrderIntent, onStage orders.StageFunc) (*orders.Order, error)
	GetByID(ctx context.Context, orderID int64, viewer orders.AuthContext) (*orders.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*orders.Order, error)
}

// Notifier is the post-commit confirmation sub-flow.
type Notifier interface {
	Dispatch(ctx context.Context, o *orders.Order) error
}

// Publisher is the fire-and-forget event bus.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type OrdersHandler struct {
	Store    OrderStore
	Producer Publisher
	Cache    redisx.KV
	Notify   Notifier
	Metrics  *metrics.Metrics
	Service  string
}

type errBody struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Post("/orders/me", h.createOwnOrder)
	r.Get("/orders/me", h.listMyOrders)
	r.Get("/orders/{id}", h.getOrder)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

var kindStatus = map[orders.Kind]int{
	orders.KindValidation: http.StatusBadRequest,
	orders.KindAuth:       http.StatusUnauthorized,
	orders.KindForbidden:  http.StatusForbidden,
	orders.KindNotFound:   http.StatusNotFound,
	orders.KindConflict:   http.StatusConflict,
	orders.KindUnexpected: http.StatusInternalServerError,
}

var kindOutcome = map[orders.Kind]string{
	orders.KindValidation: "validation",
	orders.KindAuth:       "auth",
	orders.KindForbidden:  "forbidden",
	orders.KindNotFound:   "not_found",
	orders.KindConflict:   "conflict",
	orders.KindUnexpected: "error",
}

// writeError maps pipeline errors onto the HTTP contract. Only the sanitized
// message and details ever reach the client.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var oe *orders.Error
	if errors.As(err, &oe) {
		writeJSON(w, kindStatus[oe.Kind], errBody{Message: oe.Message, Details: oe.Details})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errBody{Message: fallback})
}

func (h *OrdersHandler) count(outcome string) {
	if h.Metrics != nil {
		h.Metrics.OrdersTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	h.handleCreate(w, r, orders.IntentOptions{})
}

// createOwnOrder always creates for the authenticated user.
func (h *OrdersHandler) createOwnOrder(w http.ResponseWriter, r *http.Request) {
	auth := AuthFromContext(r.Context())
	h.handleCreate(w, r, orders.IntentOptions{
		ForceUserID:     auth.UserID,
		EnforceSameUser: true,
	})
}

func (h *OrdersHandler) handleCreate(w http.ResponseWriter, r *http.Request, opts orders.IntentOptions) {
	auth := AuthFromContext(r.Context())
	log := slog.With("request_id", middleware.GetReqID(r.Context()))
	attempt := orders.NewAttempt(log)

	var req orders.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.count("validation")
		writeJSON(w, http.StatusBadRequest, errBody{Message: "JSON invalido"})
		return
	}

	intent, err := orders.BuildIntent(&req, auth, opts)
	if err != nil {
		attempt.Advance(orders.StageRolledBack)
		h.count(kindOutcome[orders.KindOf(err)])
		writeError(w, err, "Error al crear la orden")
		return
	}
	attempt.Advance(orders.StageValidated)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	order, err := h.Store.Create(ctx, intent, attempt.Advance)
	if h.Metrics != nil {
		h.Metrics.CreateSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		h.count(kindOutcome[orders.KindOf(err)])
		writeError(w, err, "Error al crear la orden")
		return
	}
	h.count("created")

	orderJSON := kafkax.MustMarshal(order)
	if err := h.Cache.Set(ctx, fmt.Sprintf(redisx.KeyOrder, order.ID), string(orderJSON), redisx.TTLOrderCache); err != nil {
		log.Warn("order cache write failed", "order_id", order.ID, "error", err)
	}
	h.publishCreated(order, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, order)

	// Best-effort confirmation, strictly after commit. The response above is
	// already on the wire; whatever happens here only shows up in logs.
	nctx, ncancel := context.WithTimeout(context.WithoutCancel(r.Context()), 30*time.Second)
	defer ncancel()
	attempt.Advance(orders.StageNotifyPend)
	if err := h.Notify.Dispatch(nctx, order); err != nil {
		attempt.Advance(orders.StageNotifyFailed)
		return
	}
	attempt.Advance(orders.StageNotified)
}

func (h *OrdersHandler) publishCreated(order *orders.Order, traceID string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       traceID,
		CorrelationID: strconv.FormatInt(order.ID, 10),
		Payload:       kafkax.MustMarshal(orders.OrderCreatedPayload{OrderID: order.ID, Order: *order}),
	}
	h.Producer.Publish(orders.PartitionKey(order.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		writeJSON(w, http.StatusBadRequest, errBody{Message: "ID de orden invalido"})
		return
	}
	auth := AuthFromContext(r.Context())
	if !auth.IsAdmin && auth.UserID == 0 {
		writeJSON(w, http.StatusUnauthorized, errBody{Message: "Token de usuario requerido"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Cache first; ownership is still enforced against the cached document.
	if s, err := h.Cache.Get(ctx, fmt.Sprintf(redisx.KeyOrder, orderID)); err == nil {
		var cached orders.Order
		if json.Unmarshal([]byte(s), &cached) == nil {
			if !auth.IsAdmin && cached.UserID != auth.UserID {
				writeJSON(w, http.StatusNotFound, errBody{Message: "Orden no encontrada"})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	order, err := h.Store.GetByID(ctx, orderID, auth)
	if err != nil {
		writeError(w, err, "Error al obtener la orden")
		return
	}
	orderJSON := kafkax.MustMarshal(order)
	if err := h.Cache.Set(ctx, fmt.Sprintf(redisx.KeyOrder, orderID), string(orderJSON), redisx.TTLOrderCache); err != nil {
		slog.Warn("order cache write failed", "order_id", orderID, "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(orderJSON)
}

func (h *OrdersHandler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	auth := AuthFromContext(r.Context())
	if auth.UserID == 0 {
		writeJSON(w, http.StatusUnauthorized, errBody{Message: "Token de usuario requerido"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.ListByUser(ctx, auth.UserID)
	if err != nil {
		writeError(w, err, "Error al obtener las ordenes")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
