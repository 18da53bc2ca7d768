// Package ledger appends immutable monetary events and aggregates them for
// revenue reporting. No code path updates or deletes a ledger row.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/model"
	"github.com/r6mez/Digital-Library-API/util/database"
)

type KindTotal struct {
	Kind  model.TxnKind   `json:"type"`
	Total decimal.Decimal `json:"total"`
}

// Repo is the append-and-aggregate surface over the transactions table.
// Revenue windows are half-open [from, to); a nil bound leaves that side
// open.
type Repo interface {
	Append(ctx context.Context, q database.Querier, e *model.LedgerEntry) error
	ListByUser(ctx context.Context, userID int64) ([]model.LedgerEntry, error)
	RevenueTotal(ctx context.Context, from, to *time.Time) (decimal.Decimal, error)
	RevenueByKind(ctx context.Context, from, to *time.Time) ([]KindTotal, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Append(ctx context.Context, q database.Querier, e *model.LedgerEntry) error {
	const stmt = `
INSERT INTO transactions (user_id, book_id, offer_id, type, amount, description)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id, created_at`
	return q.QueryRow(ctx, stmt, e.UserID, e.BookID, e.OfferID, e.Kind, e.Amount, e.Description).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	const q = `
SELECT id, user_id, book_id, offer_id, type, amount, description, created_at
FROM transactions
WHERE user_id=$1
ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.BookID, &e.OfferID, &e.Kind, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repo) RevenueTotal(ctx context.Context, from, to *time.Time) (decimal.Decimal, error) {
	const q = `
SELECT COALESCE(sum(amount), 0)
FROM transactions
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)`
	var total decimal.Decimal
	err := r.db.Pool.QueryRow(ctx, q, from, to).Scan(&total)
	return total, err
}

func (r *repo) RevenueByKind(ctx context.Context, from, to *time.Time) ([]KindTotal, error) {
	const q = `
SELECT type, COALESCE(sum(amount), 0)
FROM transactions
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at < $2)
GROUP BY type
ORDER BY type`
	rows, err := r.db.Pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KindTotal
	for rows.Next() {
		var kt KindTotal
		if err := rows.Scan(&kt.Kind, &kt.Total); err != nil {
			return nil, err
		}
		out = append(out, kt)
	}
	return out, rows.Err()
}
