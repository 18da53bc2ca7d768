// Package entitlement stores what a user owns, what they have on loan, their
// active subscription history, and the balance column the coordinator debits.
package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/model"
	"github.com/r6mez/Digital-Library-API/util/database"
)

// ErrInsufficientFunds is returned by DebitBalance when the conditional
// update matches no row, i.e. the balance is below the charge.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Repo methods taking a database.Querier participate in a coordinator
// transaction and must be handed its pgx.Tx; the rest read from the pool.
type Repo interface {
	UserByID(ctx context.Context, userID int64) (*model.User, error)
	LockUser(ctx context.Context, q database.Querier, userID int64) (bool, error)
	Balance(ctx context.Context, q database.Querier, userID int64) (decimal.Decimal, error)
	DebitBalance(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error
	CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)

	InsertOwned(ctx context.Context, q database.Querier, userID, bookID int64) (*model.OwnedBook, error)
	HasOwned(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error)
	OwnedAmong(ctx context.Context, q database.Querier, userID int64, bookIDs []int64) ([]int64, error)

	InsertBorrow(ctx context.Context, q database.Querier, userID, bookID int64, borrowed, due time.Time) (*model.BorrowedBook, error)
	BorrowByUserBook(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error)
	CountBorrows(ctx context.Context, q database.Querier, userID int64) (int64, error)
	DeleteBorrow(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error)

	InsertActiveSubscription(ctx context.Context, q database.Querier, userID, planID int64, start, deadline time.Time) (*model.ActiveSubscription, error)
	LatestActiveSubscription(ctx context.Context, q database.Querier, userID int64, now time.Time) (*model.ActiveSubscription, error)
	DeleteActiveSubscription(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) UserByID(ctx context.Context, userID int64) (*model.User, error) {
	const q = `
SELECT id, name, email, password_hash, money, is_admin, email_verified, created_at
FROM users WHERE id=$1`
	u := &model.User{}
	err := r.db.Pool.QueryRow(ctx, q, userID).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Money, &u.IsAdmin, &u.EmailVerified, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// LockUser takes a row lock on the user inside the caller's transaction.
// Concurrent writers for the same user block here until the first commits,
// so a precondition checked after the lock stays true until commit. Returns
// false when the user does not exist.
func (r *repo) LockUser(ctx context.Context, q database.Querier, userID int64) (bool, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repo) Balance(ctx context.Context, q database.Querier, userID int64) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := q.QueryRow(ctx, `SELECT money FROM users WHERE id=$1`, userID).Scan(&bal)
	return bal, err
}

// DebitBalance is the single conditional atomic update every charge goes
// through: the balance check and the decrement are one statement, so two
// concurrent requests can never both pass an insufficient-funds check.
func (r *repo) DebitBalance(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
	const stmt = `
			UPDATE users
			SET money = money - $2
			WHERE id = $1
			AND money >= $2`
	tag, err := q.Exec(ctx, stmt, userID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (r *repo) CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	const stmt = `
			UPDATE users
			SET money = money + $2
			WHERE id = $1
			RETURNING money`
	var bal decimal.Decimal
	err := r.db.Pool.QueryRow(ctx, stmt, userID, amount).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, pgx.ErrNoRows
	}
	return bal, err
}

func (r *repo) InsertOwned(ctx context.Context, q database.Querier, userID, bookID int64) (*model.OwnedBook, error) {
	const stmt = `
INSERT INTO owned_books (user_id, book_id)
VALUES ($1,$2)
RETURNING id, created_at`
	o := &model.OwnedBook{UserID: userID, BookID: bookID}
	if err := q.QueryRow(ctx, stmt, userID, bookID).Scan(&o.ID, &o.CreatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repo) HasOwned(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM owned_books WHERE user_id=$1 AND book_id=$2)`,
		userID, bookID).Scan(&exists)
	return exists, err
}

func (r *repo) OwnedAmong(ctx context.Context, q database.Querier, userID int64, bookIDs []int64) ([]int64, error) {
	rows, err := q.Query(ctx,
		`SELECT book_id FROM owned_books WHERE user_id=$1 AND book_id = ANY($2) ORDER BY book_id`,
		userID, bookIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repo) InsertBorrow(ctx context.Context, q database.Querier, userID, bookID int64, borrowed, due time.Time) (*model.BorrowedBook, error) {
	const stmt = `
INSERT INTO borrowed_books (user_id, book_id, borrowed_date, return_date)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at`
	b := &model.BorrowedBook{UserID: userID, BookID: bookID, BorrowedDate: borrowed, ReturnDate: due}
	if err := q.QueryRow(ctx, stmt, userID, bookID, borrowed, due).Scan(&b.ID, &b.CreatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) BorrowByUserBook(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error) {
	const stmt = `
SELECT id, user_id, book_id, borrowed_date, return_date, created_at
FROM borrowed_books WHERE user_id=$1 AND book_id=$2`
	b := &model.BorrowedBook{}
	err := q.QueryRow(ctx, stmt, userID, bookID).
		Scan(&b.ID, &b.UserID, &b.BookID, &b.BorrowedDate, &b.ReturnDate, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repo) CountBorrows(ctx context.Context, q database.Querier, userID int64) (int64, error) {
	var n int64
	err := q.QueryRow(ctx, `SELECT count(*) FROM borrowed_books WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

func (r *repo) DeleteBorrow(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
	tag, err := q.Exec(ctx, `DELETE FROM borrowed_books WHERE user_id=$1 AND book_id=$2`, userID, bookID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) InsertActiveSubscription(ctx context.Context, q database.Querier, userID, planID int64, start, deadline time.Time) (*model.ActiveSubscription, error) {
	const stmt = `
INSERT INTO active_subscriptions (user_id, plan_id, start_date, deadline)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at`
	s := &model.ActiveSubscription{UserID: userID, PlanID: planID, StartDate: start, Deadline: deadline}
	if err := q.QueryRow(ctx, stmt, userID, planID, start, deadline).Scan(&s.ID, &s.CreatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

// LatestActiveSubscription returns the newest record whose deadline is still
// in the future; expired history rows never block a new activation.
func (r *repo) LatestActiveSubscription(ctx context.Context, q database.Querier, userID int64, now time.Time) (*model.ActiveSubscription, error) {
	const stmt = `
SELECT id, user_id, plan_id, start_date, deadline, created_at
FROM active_subscriptions
WHERE user_id=$1 AND deadline > $2
ORDER BY created_at DESC
LIMIT 1`
	s := &model.ActiveSubscription{}
	err := q.QueryRow(ctx, stmt, userID, now).
		Scan(&s.ID, &s.UserID, &s.PlanID, &s.StartDate, &s.Deadline, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repo) DeleteActiveSubscription(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM active_subscriptions WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
