// Package txn is the transaction coordinator: each entitlement-granting
// action (buy, borrow, activate subscription, accept offer) runs as one
// database transaction that checks preconditions, debits the balance,
// writes the entitlement records and appends the ledger entry, or does
// nothing at all.
package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/model"
	entrepo "github.com/r6mez/Digital-Library-API/repository/entitlement"
	mailerrepo "github.com/r6mez/Digital-Library-API/repository/mailer"
	"github.com/r6mez/Digital-Library-API/util/database"
)

const (
	minBorrowDays = 1
	maxBorrowDays = 30

	offerTTL      = 24 * time.Hour
	notifyTimeout = 10 * time.Second
)

// offerDiscount is the fixed bundle discount: pay 75% of the summed price.
var offerDiscount = decimal.RequireFromString("0.75")

// CatalogRepo is the read-only pricing surface the coordinator consumes.
type CatalogRepo interface {
	BookByID(ctx context.Context, id int64) (*model.Book, error)
	BooksByIDs(ctx context.Context, ids []int64) ([]model.Book, error)
	PlanByID(ctx context.Context, id int64) (*model.SubscriptionPlan, error)
}

type EntitlementRepo interface {
	UserByID(ctx context.Context, userID int64) (*model.User, error)
	LockUser(ctx context.Context, q database.Querier, userID int64) (bool, error)
	Balance(ctx context.Context, q database.Querier, userID int64) (decimal.Decimal, error)
	DebitBalance(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error

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

type LedgerRepo interface {
	Append(ctx context.Context, q database.Querier, e *model.LedgerEntry) error
}

type OfferRepo interface {
	Insert(ctx context.Context, q database.Querier, o *model.Offer, bookIDs []int64) error
	ByID(ctx context.Context, q database.Querier, id int64) (*model.Offer, error)
	Books(ctx context.Context, q database.Querier, offerID int64) ([]model.Book, error)
	ReplaceBooks(ctx context.Context, q database.Querier, offerID int64, bookIDs []int64) error
	UpdatePrices(ctx context.Context, q database.Querier, offerID int64, original, discounted decimal.Decimal) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// dto

type BorrowResult struct {
	Borrow *model.BorrowedBook `json:"borrowed_book"`
	Entry  *model.LedgerEntry  `json:"transaction"`
}

type SubscriptionResult struct {
	Active *model.ActiveSubscription `json:"active_subscription"`
	Entry  *model.LedgerEntry        `json:"transaction"`
}

type OfferResult struct {
	Offer *model.Offer `json:"offer"`
	Books []model.Book `json:"books"`
}

type AcceptOfferResult struct {
	Owned []model.OwnedBook  `json:"owned"`
	Entry *model.LedgerEntry `json:"transaction"`
}

// Access is the entitlement-check answer for a (user, book) pair.
type Access struct {
	Granted bool       `json:"granted"`
	Source  string     `json:"source,omitempty"` // OWNED | BORROWED
	Until   *time.Time `json:"until,omitempty"`
	Reason  string     `json:"reason,omitempty"`
}

type Service interface {
	Buy(ctx context.Context, userID, bookID int64) (*model.OwnedBook, error)
	Borrow(ctx context.Context, userID, bookID int64, days int) (*BorrowResult, error)
	Return(ctx context.Context, userID, bookID int64) error
	CheckAccess(ctx context.Context, userID, bookID int64) (*Access, error)

	ActivateSubscription(ctx context.Context, userID, planID int64) (*SubscriptionResult, error)
	DeactivateSubscription(ctx context.Context, activeID int64) error
	CurrentSubscription(ctx context.Context, userID int64) (*model.ActiveSubscription, error)

	CreateOffer(ctx context.Context, userID int64, bookIDs []int64) (*OfferResult, error)
	GetOffer(ctx context.Context, offerID int64) (*OfferResult, error)
	AcceptOffer(ctx context.Context, userID, offerID int64) (*AcceptOfferResult, error)
	UpdateOffer(ctx context.Context, offerID int64, bookIDs []int64) (*model.Offer, error)
	DeleteOffer(ctx context.Context, offerID int64) error
}

// ----- Service implementation -----

type service struct {
	db   database.Store
	cat  CatalogRepo
	ent  EntitlementRepo
	led  LedgerRepo
	off  OfferRepo
	mail mailerrepo.Repo
	log  *slog.Logger
	now  func() time.Time
}

func New(db database.Store, cat CatalogRepo, ent EntitlementRepo, led LedgerRepo, off OfferRepo, mail mailerrepo.Repo, log *slog.Logger) Service {
	return &service{
		db:   db,
		cat:  cat,
		ent:  ent,
		led:  led,
		off:  off,
		mail: mail,
		log:  log,
		now:  time.Now,
	}
}

// Buy charges the book's purchase price and records ownership.
func (s *service) Buy(ctx context.Context, userID, bookID int64) (owned *model.OwnedBook, err error) {
	book, err := s.cat.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, makeErr(ErrNotFound)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	alreadyOwned, err := s.ent.HasOwned(ctx, tx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if alreadyOwned {
		return nil, makeErr(ErrConflict)
	}

	borrowed, err := s.ent.BorrowByUserBook(ctx, tx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if borrowed != nil {
		// Must return the loan before buying the same book.
		return nil, makeErr(ErrConflict)
	}

	if err = s.debit(ctx, tx, userID, book.BuyPrice); err != nil {
		return nil, err
	}

	owned, err = s.ent.InsertOwned(ctx, tx, userID, bookID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, makeErr(ErrConflict)
		}
		return nil, err
	}

	entry := &model.LedgerEntry{
		UserID:      userID,
		BookID:      &bookID,
		Kind:        model.KindPurchase,
		Amount:      book.BuyPrice,
		Description: fmt.Sprintf("Purchase of book %d", bookID),
	}
	if err = s.led.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, func(ctx context.Context, u *model.User) error {
		return s.mail.SendPurchase(ctx, u.Email, u.Name, book.Name, book.BuyPrice)
	})
	return owned, nil
}

// Borrow charges per day unless a valid subscription still has quota, then
// records the loan. A zero-charge borrow still gets a ledger entry.
func (s *service) Borrow(ctx context.Context, userID, bookID int64, days int) (res *BorrowResult, err error) {
	if days < minBorrowDays || days > maxBorrowDays {
		return nil, makeErr(ErrInvalidInput)
	}

	book, err := s.cat.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, makeErr(ErrNotFound)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	alreadyOwned, err := s.ent.HasOwned(ctx, tx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if alreadyOwned {
		return nil, makeErr(ErrConflict)
	}

	existing, err := s.ent.BorrowByUserBook(ctx, tx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, makeErr(ErrConflict)
	}

	charge, err := s.borrowCharge(ctx, tx, userID, book, days)
	if err != nil {
		return nil, err
	}

	if err = s.debit(ctx, tx, userID, charge); err != nil {
		return nil, err
	}

	now := s.now()
	due := now.Add(time.Duration(days) * 24 * time.Hour)
	borrow, err := s.ent.InsertBorrow(ctx, tx, userID, bookID, now, due)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, makeErr(ErrConflict)
		}
		return nil, err
	}

	entry := &model.LedgerEntry{
		UserID:      userID,
		BookID:      &bookID,
		Kind:        model.KindBorrow,
		Amount:      charge,
		Description: fmt.Sprintf("Borrowed %s for %d day(s)", book.Name, days),
	}
	if err = s.led.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, func(ctx context.Context, u *model.User) error {
		return s.mail.SendBorrow(ctx, u.Email, u.Name, book.Name, days, charge, due)
	})
	return &BorrowResult{Borrow: borrow, Entry: entry}, nil
}

// borrowCharge prices a borrow: free while a currently valid subscription
// has quota left, otherwise per-day price times days.
func (s *service) borrowCharge(ctx context.Context, q database.Querier, userID int64, book *model.Book, days int) (decimal.Decimal, error) {
	full := book.BorrowPricePerDay.Mul(decimal.NewFromInt(int64(days)))

	sub, err := s.ent.LatestActiveSubscription(ctx, q, userID, s.now())
	if err != nil {
		return decimal.Zero, err
	}
	if sub == nil {
		return full, nil
	}

	plan, err := s.cat.PlanByID(ctx, sub.PlanID)
	if err != nil {
		return decimal.Zero, err
	}
	if plan == nil {
		return full, nil
	}

	outstanding, err := s.ent.CountBorrows(ctx, q, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if outstanding >= int64(plan.MaximumBorrow) {
		// Quota exhausted: the subscription no longer covers this
		// borrow, so the user pays the per-day price.
		return full, nil
	}
	return decimal.Zero, nil
}

// Return deletes the borrow record. There is no refund; the charge was made
// at borrow time. Returning a book that is not borrowed is a conflict.
func (s *service) Return(ctx context.Context, userID, bookID int64) error {
	book, err := s.cat.BookByID(ctx, bookID)
	if err != nil {
		return err
	}
	if book == nil {
		return makeErr(ErrNotFound)
	}

	deleted, err := s.ent.DeleteBorrow(ctx, s.db, userID, bookID)
	if err != nil {
		return err
	}
	if !deleted {
		return makeErr(ErrConflict)
	}
	return nil
}

// CheckAccess answers whether the user may open the book's content right
// now: ownership grants it forever, a borrow only until its return date.
func (s *service) CheckAccess(ctx context.Context, userID, bookID int64) (*Access, error) {
	book, err := s.cat.BookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, makeErr(ErrNotFound)
	}

	owned, err := s.ent.HasOwned(ctx, s.db, userID, bookID)
	if err != nil {
		return nil, err
	}
	if owned {
		return &Access{Granted: true, Source: "OWNED"}, nil
	}

	borrow, err := s.ent.BorrowByUserBook(ctx, s.db, userID, bookID)
	if err != nil {
		return nil, err
	}
	if borrow == nil {
		return &Access{Granted: false, Reason: "access denied"}, nil
	}
	if borrow.ReturnDate.Before(s.now()) {
		return &Access{Granted: false, Reason: "borrow period expired"}, nil
	}
	return &Access{Granted: true, Source: "BORROWED", Until: &borrow.ReturnDate}, nil
}

// debit runs the conditional balance decrement; zero charges skip it.
func (s *service) debit(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return nil
	}
	if err := s.ent.DebitBalance(ctx, q, userID, amount); err != nil {
		if errors.Is(err, entrepo.ErrInsufficientFunds) {
			return makeErr(ErrInsufficientFunds)
		}
		return err
	}
	return nil
}

// afterCommit dispatches a confirmation email outside the transaction's
// failure path. Errors are logged and swallowed.
func (s *service) afterCommit(ctx context.Context, userID int64, send func(ctx context.Context, u *model.User) error) {
	nctx := context.WithoutCancel(ctx)
	go func() {
		cctx, cancel := context.WithTimeout(nctx, notifyTimeout)
		defer cancel()

		u, err := s.ent.UserByID(cctx, userID)
		if err != nil || u == nil {
			s.log.Error("notification: load user failed", "user_id", userID, "err", err)
			return
		}
		if err := send(cctx, u); err != nil {
			s.log.Error("notification send failed", "user_id", userID, "err", err)
		}
	}()
}
