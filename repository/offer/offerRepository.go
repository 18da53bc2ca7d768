// Package offer stores discounted book bundles and their book-list joins.
package offer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/model"
	"github.com/r6mez/Digital-Library-API/util/database"
)

type Repo interface {
	Insert(ctx context.Context, q database.Querier, o *model.Offer, bookIDs []int64) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Offer, error)
	Books(ctx context.Context, q database.Querier, offerID int64) ([]model.Book, error)
	ReplaceBooks(ctx context.Context, q database.Querier, offerID int64, bookIDs []int64) error
	UpdatePrices(ctx context.Context, q database.Querier, offerID int64, original, discounted decimal.Decimal) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Insert(ctx context.Context, q database.Querier, o *model.Offer, bookIDs []int64) error {
	const stmt = `
INSERT INTO offers (user_id, original_price, discounted_price, expires_at)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at`
	if err := q.QueryRow(ctx, stmt, o.UserID, o.OriginalPrice, o.DiscountedPrice, o.ExpiresAt).
		Scan(&o.ID, &o.CreatedAt); err != nil {
		return err
	}
	for _, bookID := range bookIDs {
		if _, err := q.Exec(ctx, `INSERT INTO offered_books (offer_id, book_id) VALUES ($1,$2)`, o.ID, bookID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) ByID(ctx context.Context, q database.Querier, id int64) (*model.Offer, error) {
	const stmt = `
SELECT id, user_id, original_price, discounted_price, expires_at, created_at
FROM offers WHERE id=$1`
	o := &model.Offer{}
	err := q.QueryRow(ctx, stmt, id).
		Scan(&o.ID, &o.UserID, &o.OriginalPrice, &o.DiscountedPrice, &o.ExpiresAt, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repo) Books(ctx context.Context, q database.Querier, offerID int64) ([]model.Book, error) {
	const stmt = `
SELECT b.id, b.name, b.description, b.author_id, b.category_id, b.type_id,
       b.buy_price, b.borrow_price_per_day, b.pdf_path, b.created_at
FROM offered_books ob
JOIN books b ON b.id = ob.book_id
WHERE ob.offer_id=$1
ORDER BY b.id`
	rows, err := q.Query(ctx, stmt, offerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.AuthorID, &b.CategoryID, &b.TypeID,
			&b.BuyPrice, &b.BorrowPricePerDay, &b.PDFPath, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) ReplaceBooks(ctx context.Context, q database.Querier, offerID int64, bookIDs []int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM offered_books WHERE offer_id=$1`, offerID); err != nil {
		return err
	}
	for _, bookID := range bookIDs {
		if _, err := q.Exec(ctx, `INSERT INTO offered_books (offer_id, book_id) VALUES ($1,$2)`, offerID, bookID); err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) UpdatePrices(ctx context.Context, q database.Querier, offerID int64, original, discounted decimal.Decimal) error {
	_, err := q.Exec(ctx,
		`UPDATE offers SET original_price=$2, discounted_price=$3 WHERE id=$1`,
		offerID, original, discounted)
	return err
}

// Delete removes the offer; offered_books rows go with it via cascade.
func (r *repo) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM offers WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
