package txn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/r6mez/Digital-Library-API/model"
	entrepo "github.com/r6mez/Digital-Library-API/repository/entitlement"
	"github.com/r6mez/Digital-Library-API/util/database"
)

// --- fakes ---

// fakeTx records whether the coordinator committed or rolled back.
type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}
func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeStore struct {
	tx *fakeTx
}

func (s *fakeStore) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (s *fakeStore) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (s *fakeStore) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (s *fakeStore) Begin(ctx context.Context) (database.Tx, error) {
	s.tx = &fakeTx{}
	return s.tx, nil
}

type catalogMock struct {
	bookByIDFn   func(ctx context.Context, id int64) (*model.Book, error)
	booksByIDsFn func(ctx context.Context, ids []int64) ([]model.Book, error)
	planByIDFn   func(ctx context.Context, id int64) (*model.SubscriptionPlan, error)
}

func (m *catalogMock) BookByID(ctx context.Context, id int64) (*model.Book, error) {
	if m.bookByIDFn == nil {
		return nil, nil
	}
	return m.bookByIDFn(ctx, id)
}
func (m *catalogMock) BooksByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	if m.booksByIDsFn == nil {
		return nil, nil
	}
	return m.booksByIDsFn(ctx, ids)
}
func (m *catalogMock) PlanByID(ctx context.Context, id int64) (*model.SubscriptionPlan, error) {
	if m.planByIDFn == nil {
		return nil, nil
	}
	return m.planByIDFn(ctx, id)
}

type entMock struct {
	userByIDFn      func(ctx context.Context, userID int64) (*model.User, error)
	lockUserFn      func(ctx context.Context, q database.Querier, userID int64) (bool, error)
	balanceFn       func(ctx context.Context, q database.Querier, userID int64) (decimal.Decimal, error)
	debitFn         func(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error
	insertOwnedFn   func(ctx context.Context, q database.Querier, userID, bookID int64) (*model.OwnedBook, error)
	hasOwnedFn      func(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error)
	ownedAmongFn    func(ctx context.Context, q database.Querier, userID int64, bookIDs []int64) ([]int64, error)
	insertBorrowFn  func(ctx context.Context, q database.Querier, userID, bookID int64, borrowed, due time.Time) (*model.BorrowedBook, error)
	borrowByUBFn    func(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error)
	countBorrowsFn  func(ctx context.Context, q database.Querier, userID int64) (int64, error)
	deleteBorrowFn  func(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error)
	insertActiveFn  func(ctx context.Context, q database.Querier, userID, planID int64, start, deadline time.Time) (*model.ActiveSubscription, error)
	latestActiveFn  func(ctx context.Context, q database.Querier, userID int64, now time.Time) (*model.ActiveSubscription, error)
	deleteActiveFn  func(ctx context.Context, id int64) (bool, error)
}

func (m *entMock) UserByID(ctx context.Context, userID int64) (*model.User, error) {
	if m.userByIDFn == nil {
		return &model.User{ID: userID, Name: "u", Email: "u@example.com"}, nil
	}
	return m.userByIDFn(ctx, userID)
}
func (m *entMock) LockUser(ctx context.Context, q database.Querier, userID int64) (bool, error) {
	if m.lockUserFn == nil {
		return true, nil
	}
	return m.lockUserFn(ctx, q, userID)
}
func (m *entMock) Balance(ctx context.Context, q database.Querier, userID int64) (decimal.Decimal, error) {
	if m.balanceFn == nil {
		return decimal.Zero, nil
	}
	return m.balanceFn(ctx, q, userID)
}
func (m *entMock) DebitBalance(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
	if m.debitFn == nil {
		return nil
	}
	return m.debitFn(ctx, q, userID, amount)
}
func (m *entMock) InsertOwned(ctx context.Context, q database.Querier, userID, bookID int64) (*model.OwnedBook, error) {
	if m.insertOwnedFn == nil {
		return &model.OwnedBook{UserID: userID, BookID: bookID}, nil
	}
	return m.insertOwnedFn(ctx, q, userID, bookID)
}
func (m *entMock) HasOwned(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
	if m.hasOwnedFn == nil {
		return false, nil
	}
	return m.hasOwnedFn(ctx, q, userID, bookID)
}
func (m *entMock) OwnedAmong(ctx context.Context, q database.Querier, userID int64, bookIDs []int64) ([]int64, error) {
	if m.ownedAmongFn == nil {
		return nil, nil
	}
	return m.ownedAmongFn(ctx, q, userID, bookIDs)
}
func (m *entMock) InsertBorrow(ctx context.Context, q database.Querier, userID, bookID int64, borrowed, due time.Time) (*model.BorrowedBook, error) {
	if m.insertBorrowFn == nil {
		return &model.BorrowedBook{UserID: userID, BookID: bookID, BorrowedDate: borrowed, ReturnDate: due}, nil
	}
	return m.insertBorrowFn(ctx, q, userID, bookID, borrowed, due)
}
func (m *entMock) BorrowByUserBook(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error) {
	if m.borrowByUBFn == nil {
		return nil, nil
	}
	return m.borrowByUBFn(ctx, q, userID, bookID)
}
func (m *entMock) CountBorrows(ctx context.Context, q database.Querier, userID int64) (int64, error) {
	if m.countBorrowsFn == nil {
		return 0, nil
	}
	return m.countBorrowsFn(ctx, q, userID)
}
func (m *entMock) DeleteBorrow(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
	if m.deleteBorrowFn == nil {
		return false, nil
	}
	return m.deleteBorrowFn(ctx, q, userID, bookID)
}
func (m *entMock) InsertActiveSubscription(ctx context.Context, q database.Querier, userID, planID int64, start, deadline time.Time) (*model.ActiveSubscription, error) {
	if m.insertActiveFn == nil {
		return &model.ActiveSubscription{UserID: userID, PlanID: planID, StartDate: start, Deadline: deadline}, nil
	}
	return m.insertActiveFn(ctx, q, userID, planID, start, deadline)
}
func (m *entMock) LatestActiveSubscription(ctx context.Context, q database.Querier, userID int64, now time.Time) (*model.ActiveSubscription, error) {
	if m.latestActiveFn == nil {
		return nil, nil
	}
	return m.latestActiveFn(ctx, q, userID, now)
}
func (m *entMock) DeleteActiveSubscription(ctx context.Context, id int64) (bool, error) {
	if m.deleteActiveFn == nil {
		return false, nil
	}
	return m.deleteActiveFn(ctx, id)
}

type ledgerMock struct {
	entries  []model.LedgerEntry
	appendFn func(ctx context.Context, q database.Querier, e *model.LedgerEntry) error
}

func (m *ledgerMock) Append(ctx context.Context, q database.Querier, e *model.LedgerEntry) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, q, e)
	}
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, *e)
	return nil
}

type offerMock struct {
	insertFn       func(ctx context.Context, q database.Querier, o *model.Offer, bookIDs []int64) error
	byIDFn         func(ctx context.Context, q database.Querier, id int64) (*model.Offer, error)
	booksFn        func(ctx context.Context, q database.Querier, offerID int64) ([]model.Book, error)
	replaceBooksFn func(ctx context.Context, q database.Querier, offerID int64, bookIDs []int64) error
	updatePricesFn func(ctx context.Context, q database.Querier, offerID int64, original, discounted decimal.Decimal) error
	deleteFn       func(ctx context.Context, id int64) (bool, error)
}

func (m *offerMock) Insert(ctx context.Context, q database.Querier, o *model.Offer, bookIDs []int64) error {
	if m.insertFn == nil {
		o.ID = 1
		return nil
	}
	return m.insertFn(ctx, q, o, bookIDs)
}
func (m *offerMock) ByID(ctx context.Context, q database.Querier, id int64) (*model.Offer, error) {
	if m.byIDFn == nil {
		return nil, nil
	}
	return m.byIDFn(ctx, q, id)
}
func (m *offerMock) Books(ctx context.Context, q database.Querier, offerID int64) ([]model.Book, error) {
	if m.booksFn == nil {
		return nil, nil
	}
	return m.booksFn(ctx, q, offerID)
}
func (m *offerMock) ReplaceBooks(ctx context.Context, q database.Querier, offerID int64, bookIDs []int64) error {
	if m.replaceBooksFn == nil {
		return nil
	}
	return m.replaceBooksFn(ctx, q, offerID, bookIDs)
}
func (m *offerMock) UpdatePrices(ctx context.Context, q database.Querier, offerID int64, original, discounted decimal.Decimal) error {
	if m.updatePricesFn == nil {
		return nil
	}
	return m.updatePricesFn(ctx, q, offerID, original, discounted)
}
func (m *offerMock) Delete(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn == nil {
		return false, nil
	}
	return m.deleteFn(ctx, id)
}

type mailMock struct{}

func (mailMock) SendPurchase(ctx context.Context, email, name, bookName string, amount decimal.Decimal) error {
	return nil
}
func (mailMock) SendBorrow(ctx context.Context, email, name, bookName string, days int, amount decimal.Decimal, returnDate time.Time) error {
	return nil
}
func (mailMock) SendSubscription(ctx context.Context, email, name, planName string, price decimal.Decimal, expiresAt time.Time) error {
	return nil
}
func (mailMock) SendOfferPurchase(ctx context.Context, email, name string, bookNames []string, amount decimal.Decimal) error {
	return nil
}

type harness struct {
	store *fakeStore
	cat   *catalogMock
	ent   *entMock
	led   *ledgerMock
	off   *offerMock
	svc   *service
}

func newHarness() *harness {
	h := &harness{
		store: &fakeStore{},
		cat:   &catalogMock{},
		ent:   &entMock{},
		led:   &ledgerMock{},
		off:   &offerMock{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.svc = New(h.store, h.cat, h.ent, h.led, h.off, mailMock{}, log).(*service)
	return h
}

func (h *harness) at(t time.Time) { h.svc.now = func() time.Time { return t } }

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func book(id int64, buy, perDay string) *model.Book {
	return &model.Book{ID: id, Name: "Book", BuyPrice: price(buy), BorrowPricePerDay: price(perDay)}
}

// --- Buy ---

func TestBuy_Success(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	var debited decimal.Decimal
	h.ent.debitFn = func(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
		debited = amount
		return nil
	}

	owned, err := h.svc.Buy(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, owned)
	require.True(t, h.store.tx.committed)
	require.True(t, debited.Equal(price("30")))

	require.Len(t, h.led.entries, 1)
	e := h.led.entries[0]
	require.Equal(t, model.KindPurchase, e.Kind)
	require.True(t, e.Amount.Equal(price("30")))
	require.Equal(t, int64(10), *e.BookID)
}

func TestBuy_BookNotFound(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Buy(context.Background(), 1, 99)
	require.Equal(t, ErrNotFound, Code(err))
	require.Nil(t, h.store.tx)
}

func TestBuy_AlreadyOwned(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.hasOwnedFn = func(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
		return true, nil
	}

	_, err := h.svc.Buy(context.Background(), 1, 10)
	require.Equal(t, ErrConflict, Code(err))
	require.True(t, h.store.tx.rolledBack)
	require.Empty(t, h.led.entries)
}

func TestBuy_CurrentlyBorrowed(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.borrowByUBFn = func(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error) {
		return &model.BorrowedBook{UserID: userID, BookID: bookID}, nil
	}

	_, err := h.svc.Buy(context.Background(), 1, 10)
	require.Equal(t, ErrConflict, Code(err))
	require.True(t, h.store.tx.rolledBack)
}

func TestBuy_InsufficientFunds(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.debitFn = func(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
		return entrepo.ErrInsufficientFunds
	}

	_, err := h.svc.Buy(context.Background(), 1, 10)
	require.Equal(t, ErrInsufficientFunds, Code(err))
	require.True(t, h.store.tx.rolledBack)
	require.False(t, h.store.tx.committed)
	require.Empty(t, h.led.entries)
}

// Losing a concurrent insert race surfaces as a conflict, not a 500.
func TestBuy_UniqueViolationRace(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.insertOwnedFn = func(ctx context.Context, q database.Querier, userID, bookID int64) (*model.OwnedBook, error) {
		return nil, &pgconn.PgError{Code: "23505"}
	}

	_, err := h.svc.Buy(context.Background(), 1, 10)
	require.Equal(t, ErrConflict, Code(err))
	require.True(t, h.store.tx.rolledBack)
}

func TestBuy_LedgerFailureRollsBack(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.led.appendFn = func(ctx context.Context, q database.Querier, e *model.LedgerEntry) error {
		return errors.New("ledger down")
	}

	_, err := h.svc.Buy(context.Background(), 1, 10)
	require.Error(t, err)
	require.True(t, h.store.tx.rolledBack)
	require.False(t, h.store.tx.committed)
}

// --- Borrow ---

func TestBorrow_ChargesPerDay(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	var debited decimal.Decimal
	h.ent.debitFn = func(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
		debited = amount
		return nil
	}

	out, err := h.svc.Borrow(context.Background(), 1, 10, 7)
	require.NoError(t, err)
	require.True(t, debited.Equal(price("14")))
	require.True(t, out.Entry.Amount.Equal(price("14")))
	require.Equal(t, model.KindBorrow, out.Entry.Kind)
	require.True(t, h.store.tx.committed)
}

func TestBorrow_DaysOutOfRange(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Borrow(context.Background(), 1, 10, 0)
	require.Equal(t, ErrInvalidInput, Code(err))

	_, err = h.svc.Borrow(context.Background(), 1, 10, 31)
	require.Equal(t, ErrInvalidInput, Code(err))
}

func TestBorrow_SubscriptionCoversCharge(t *testing.T) {
	h := newHarness()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h.at(now)

	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.cat.planByIDFn = func(ctx context.Context, id int64) (*model.SubscriptionPlan, error) {
		return &model.SubscriptionPlan{ID: id, Name: "Gold", MaximumBorrow: 3}, nil
	}
	h.ent.latestActiveFn = func(ctx context.Context, q database.Querier, userID int64, at time.Time) (*model.ActiveSubscription, error) {
		return &model.ActiveSubscription{PlanID: 5, Deadline: now.Add(48 * time.Hour)}, nil
	}
	h.ent.countBorrowsFn = func(ctx context.Context, q database.Querier, userID int64) (int64, error) {
		return 1, nil
	}
	debitCalled := false
	h.ent.debitFn = func(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
		debitCalled = true
		return nil
	}

	out, err := h.svc.Borrow(context.Background(), 1, 10, 7)
	require.NoError(t, err)
	require.False(t, debitCalled)

	// A covered borrow still leaves an audit trail, just with amount zero.
	require.True(t, out.Entry.Amount.IsZero())
	require.Equal(t, model.KindBorrow, out.Entry.Kind)
}

func TestBorrow_QuotaExhaustedCharges(t *testing.T) {
	h := newHarness()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h.at(now)

	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.cat.planByIDFn = func(ctx context.Context, id int64) (*model.SubscriptionPlan, error) {
		return &model.SubscriptionPlan{ID: id, Name: "Gold", MaximumBorrow: 2}, nil
	}
	h.ent.latestActiveFn = func(ctx context.Context, q database.Querier, userID int64, at time.Time) (*model.ActiveSubscription, error) {
		return &model.ActiveSubscription{PlanID: 5, Deadline: now.Add(48 * time.Hour)}, nil
	}
	h.ent.countBorrowsFn = func(ctx context.Context, q database.Querier, userID int64) (int64, error) {
		return 2, nil
	}
	var debited decimal.Decimal
	h.ent.debitFn = func(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
		debited = amount
		return nil
	}

	out, err := h.svc.Borrow(context.Background(), 1, 10, 3)
	require.NoError(t, err)
	require.True(t, debited.Equal(price("6")))
	require.True(t, out.Entry.Amount.Equal(price("6")))
}

func TestBorrow_AlreadyBorrowed(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.borrowByUBFn = func(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error) {
		return &model.BorrowedBook{}, nil
	}

	_, err := h.svc.Borrow(context.Background(), 1, 10, 7)
	require.Equal(t, ErrConflict, Code(err))
	require.True(t, h.store.tx.rolledBack)
}

// --- Return ---

func TestReturn_Success(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.deleteBorrowFn = func(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
		return true, nil
	}

	require.NoError(t, h.svc.Return(context.Background(), 1, 10))
}

func TestReturn_NotBorrowed(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}

	err := h.svc.Return(context.Background(), 1, 10)
	require.Equal(t, ErrConflict, Code(err))
}

func TestReturn_BookNotFound(t *testing.T) {
	h := newHarness()

	err := h.svc.Return(context.Background(), 1, 99)
	require.Equal(t, ErrNotFound, Code(err))
}

// --- CheckAccess ---

func TestCheckAccess_Owned(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.hasOwnedFn = func(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
		return true, nil
	}

	a, err := h.svc.CheckAccess(context.Background(), 1, 10)
	require.NoError(t, err)
	require.True(t, a.Granted)
	require.Equal(t, "OWNED", a.Source)
}

func TestCheckAccess_BorrowValidUntilDue(t *testing.T) {
	h := newHarness()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h.at(now)
	due := now.Add(24 * time.Hour)

	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.borrowByUBFn = func(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error) {
		return &model.BorrowedBook{ReturnDate: due}, nil
	}

	a, err := h.svc.CheckAccess(context.Background(), 1, 10)
	require.NoError(t, err)
	require.True(t, a.Granted)
	require.Equal(t, "BORROWED", a.Source)
	require.Equal(t, due, *a.Until)
}

func TestCheckAccess_BorrowExpired(t *testing.T) {
	h := newHarness()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h.at(now)

	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}
	h.ent.borrowByUBFn = func(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error) {
		return &model.BorrowedBook{ReturnDate: now.Add(-time.Hour)}, nil
	}

	a, err := h.svc.CheckAccess(context.Background(), 1, 10)
	require.NoError(t, err)
	require.False(t, a.Granted)
	require.Equal(t, "borrow period expired", a.Reason)
}

func TestCheckAccess_NoEntitlement(t *testing.T) {
	h := newHarness()
	h.cat.bookByIDFn = func(ctx context.Context, id int64) (*model.Book, error) {
		return book(id, "30", "2"), nil
	}

	a, err := h.svc.CheckAccess(context.Background(), 1, 10)
	require.NoError(t, err)
	require.False(t, a.Granted)
}
