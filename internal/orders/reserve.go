package orders

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowLocker is the slice of pgx.Tx the reservation needs.
type rowLocker interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// ReserveStock locks and decrements stock for every product in demand, inside
// the caller's open transaction. Product ids are always locked in ascending
// numeric order; every caller that locks product rows must use this order or
// two overlapping orders can deadlock each other.
//
// Any error leaves the transaction poisoned for the caller to roll back: no
// partial decrement is ever committed.
func ReserveStock(ctx context.Context, tx rowLocker, demand map[int64]int) error {
	ids := make([]int64, 0, len(demand))
	for id := range demand {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		requested := demand[id]

		var (
			stock int
			name  string
		)
		err := tx.QueryRow(ctx, `SELECT stock, name FROM product WHERE id = $1 FOR UPDATE`, id).Scan(&stock, &name)
		if errors.Is(err, pgx.ErrNoRows) {
			return NotFoundProduct(id)
		}
		if err != nil {
			return Unexpected("Error al reservar inventario", err)
		}

		if stock < requested {
			return InsufficientStock(id, requested, stock, name)
		}

		if _, err := tx.Exec(ctx, `UPDATE product SET stock = stock - $1 WHERE id = $2`, requested, id); err != nil {
			return Unexpected("Error al reservar inventario", err)
		}
	}
	return nil
}
