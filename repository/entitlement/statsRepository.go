package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/r6mez/Digital-Library-API/util/database"
)

type BorrowedBookRow struct {
	Title      string    `json:"title"`
	ReturnDate time.Time `json:"return_date"`
}

type SoldBookRow struct {
	Title string `json:"title"`
}

// LibrarySummary is the catalog-wide snapshot for the admin dashboard. Best
// book and best author rank by copies sold; both are nil while nothing has
// been sold yet.
type LibrarySummary struct {
	BestBook     *string `json:"best_book"`
	BestAuthor   *string `json:"best_author"`
	TotalUsers   int64   `json:"total_users"`
	TotalBooks   int64   `json:"total_books"`
	TotalAuthors int64   `json:"total_authors"`
}

// StatsRepo is the read-only reporting surface over the entitlement tables.
// A nil bound leaves that side of the [from, to) window open.
type StatsRepo interface {
	BorrowedInWindow(ctx context.Context, from, to *time.Time) ([]BorrowedBookRow, error)
	SoldInWindow(ctx context.Context, from, to *time.Time) ([]SoldBookRow, error)
	LibrarySummary(ctx context.Context) (*LibrarySummary, error)
}

func NewStats(db *database.DB) StatsRepo { return &repo{db: db} }

func (r *repo) BorrowedInWindow(ctx context.Context, from, to *time.Time) ([]BorrowedBookRow, error) {
	const q = `
SELECT b.title, bb.return_date
FROM borrowed_books bb
JOIN books b ON b.id = bb.book_id
WHERE ($1::timestamptz IS NULL OR bb.created_at >= $1)
  AND ($2::timestamptz IS NULL OR bb.created_at < $2)
ORDER BY bb.created_at DESC, bb.id DESC`
	rows, err := r.db.Pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BorrowedBookRow
	for rows.Next() {
		var b BorrowedBookRow
		if err := rows.Scan(&b.Title, &b.ReturnDate); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) SoldInWindow(ctx context.Context, from, to *time.Time) ([]SoldBookRow, error) {
	const q = `
SELECT b.title
FROM owned_books ob
JOIN books b ON b.id = ob.book_id
WHERE ($1::timestamptz IS NULL OR ob.created_at >= $1)
  AND ($2::timestamptz IS NULL OR ob.created_at < $2)
ORDER BY ob.created_at DESC, ob.id DESC`
	rows, err := r.db.Pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SoldBookRow
	for rows.Next() {
		var s SoldBookRow
		if err := rows.Scan(&s.Title); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repo) LibrarySummary(ctx context.Context) (*LibrarySummary, error) {
	sum := &LibrarySummary{}

	const counts = `
SELECT
	(SELECT count(*) FROM users),
	(SELECT count(*) FROM books),
	(SELECT count(*) FROM authors)`
	if err := r.db.Pool.QueryRow(ctx, counts).
		Scan(&sum.TotalUsers, &sum.TotalBooks, &sum.TotalAuthors); err != nil {
		return nil, err
	}

	const bestBook = `
SELECT b.title
FROM owned_books ob
JOIN books b ON b.id = ob.book_id
GROUP BY b.id, b.title
ORDER BY count(*) DESC, b.id
LIMIT 1`
	var title string
	err := r.db.Pool.QueryRow(ctx, bestBook).Scan(&title)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return sum, nil
	case err != nil:
		return nil, err
	}
	sum.BestBook = &title

	const bestAuthor = `
SELECT a.name
FROM owned_books ob
JOIN books b ON b.id = ob.book_id
JOIN authors a ON a.id = b.author_id
GROUP BY a.id, a.name
ORDER BY count(*) DESC, a.id
LIMIT 1`
	var name string
	if err := r.db.Pool.QueryRow(ctx, bestAuthor).Scan(&name); err != nil {
		return nil, err
	}
	sum.BestAuthor = &name
	return sum, nil
}
