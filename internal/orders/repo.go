package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of pgxpool.Pool the repo uses. Each Create checks out
// exactly one pooled connection for the life of its transaction.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repo struct{ DB Pool }

const fkViolation = "23503" // id_user references a missing user row

// Create runs the transactional half of the pipeline: reserve stock for the
// intent's aggregated demand, insert the order row, commit. On any failure the
// transaction is rolled back and the connection released; an order row exists
// if and only if the commit succeeded.
func (r *Repo) Create(ctx context.Context, intent *OrderIntent, onStage StageFunc) (*Order, error) {
	if onStage == nil {
		onStage = func(Stage) {}
	}

	customerJSON, err := json.Marshal(intent.Customer)
	if err != nil {
		return nil, Validationf("No se pudo serializar la orden")
	}
	itemsJSON, err := json.Marshal(intent.Lines)
	if err != nil {
		return nil, Validationf("No se pudo serializar la orden")
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, Unexpected("Error al crear la orden", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		// The original error is what the caller sees; a rollback failure is
		// only logged.
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.Error("order tx rollback failed", "error", rbErr)
		}
		onStage(StageRolledBack)
	}()

	onStage(StageReserving)
	if err := ReserveStock(ctx, tx, intent.Demand()); err != nil {
		return nil, err
	}
	onStage(StageReserved)

	o := &Order{
		UserID:      intent.UserID,
		Customer:    intent.Customer,
		Items:       intent.Lines,
		Total:       intent.Total,
		TypePayment: intent.TypePayment,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO "order" (id_user, customer_details, items, total, type_payment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_date`,
		intent.UserID, customerJSON, itemsJSON, intent.Total, string(intent.TypePayment),
	).Scan(&o.ID, &o.OrderDate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return nil, Conflict("El usuario asociado no existe")
		}
		return nil, Unexpected("Error al crear la orden", err)
	}
	onStage(StagePersisted)

	if err := tx.Commit(ctx); err != nil {
		return nil, Unexpected("Error al crear la orden", err)
	}
	committed = true
	onStage(StageCommitted)
	return o, nil
}

const orderColumns = `
	o.id, o.id_user, o.order_date, o.customer_details, o.items, o.total, o.type_payment,
	u.name, u.lastname, u.email`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o             Order
		customerJSON  []byte
		itemsJSON     []byte
		user          OrderUser
		typePaymentDB string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.OrderDate, &customerJSON, &itemsJSON, &o.Total, &typePaymentDB,
		&user.Name, &user.Lastname, &user.Email)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, err
	}
	o.TypePayment = PaymentType(typePaymentDB)
	if o.Customer.PaymentMethod == "" {
		o.Customer.PaymentMethod = typePaymentDB
	}
	user.ID = o.UserID
	o.User = &user
	return &o, nil
}

// GetByID returns one order. Non-admin viewers only see their own orders;
// anything else reads as not found.
func (r *Repo) GetByID(ctx context.Context, orderID int64, viewer AuthContext) (*Order, error) {
	query := `SELECT` + orderColumns + `
		FROM "order" o
		JOIN "user" u ON u.id = o.id_user
		WHERE o.id = $1`
	args := []any{orderID}
	if !viewer.IsAdmin {
		query += ` AND o.id_user = $2`
		args = append(args, viewer.UserID)
	}

	o, err := scanOrder(r.DB.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &Error{Kind: KindNotFound, Message: "Orden no encontrada"}
	}
	if err != nil {
		return nil, Unexpected("Error al obtener la orden", err)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID int64) ([]*Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT`+orderColumns+`
		FROM "order" o
		JOIN "user" u ON u.id = o.id_user
		WHERE o.id_user = $1
		ORDER BY o.order_date DESC`, userID)
	if err != nil {
		return nil, Unexpected("Error al obtener las ordenes", err)
	}
	defer rows.Close()

	out := []*Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, Unexpected("Error al obtener las ordenes", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, Unexpected("Error al obtener las ordenes", err)
	}
	return out, nil
}
