package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/r6mez/Digital-Library-API/model"
	"github.com/r6mez/Digital-Library-API/util/database"
)

type entMock struct {
	userByIDFn func(ctx context.Context, userID int64) (*model.User, error)
	creditFn   func(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
}

func (m *entMock) UserByID(ctx context.Context, userID int64) (*model.User, error) {
	if m.userByIDFn == nil {
		return nil, nil
	}
	return m.userByIDFn(ctx, userID)
}
func (m *entMock) LockUser(ctx context.Context, q database.Querier, userID int64) (bool, error) {
	return true, nil
}
func (m *entMock) Balance(ctx context.Context, q database.Querier, userID int64) (decimal.Decimal, error) {
	return decimal.RequireFromString("10"), nil
}
func (m *entMock) DebitBalance(ctx context.Context, q database.Querier, userID int64, amount decimal.Decimal) error {
	return nil
}
func (m *entMock) CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if m.creditFn == nil {
		return decimal.Zero, nil
	}
	return m.creditFn(ctx, userID, amount)
}
func (m *entMock) InsertOwned(ctx context.Context, q database.Querier, userID, bookID int64) (*model.OwnedBook, error) {
	return nil, nil
}
func (m *entMock) HasOwned(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
	return false, nil
}
func (m *entMock) OwnedAmong(ctx context.Context, q database.Querier, userID int64, bookIDs []int64) ([]int64, error) {
	return nil, nil
}
func (m *entMock) InsertBorrow(ctx context.Context, q database.Querier, userID, bookID int64, borrowed, due time.Time) (*model.BorrowedBook, error) {
	return nil, nil
}
func (m *entMock) BorrowByUserBook(ctx context.Context, q database.Querier, userID, bookID int64) (*model.BorrowedBook, error) {
	return nil, nil
}
func (m *entMock) CountBorrows(ctx context.Context, q database.Querier, userID int64) (int64, error) {
	return 0, nil
}
func (m *entMock) DeleteBorrow(ctx context.Context, q database.Querier, userID, bookID int64) (bool, error) {
	return false, nil
}
func (m *entMock) InsertActiveSubscription(ctx context.Context, q database.Querier, userID, planID int64, start, deadline time.Time) (*model.ActiveSubscription, error) {
	return nil, nil
}
func (m *entMock) LatestActiveSubscription(ctx context.Context, q database.Querier, userID int64, now time.Time) (*model.ActiveSubscription, error) {
	return nil, nil
}
func (m *entMock) DeleteActiveSubscription(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func TestCredit_Validation(t *testing.T) {
	s := New(nil, &entMock{})

	_, err := s.Credit(context.Background(), 1, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.Credit(context.Background(), 1, decimal.RequireFromString("-5"))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCredit_UserMissing(t *testing.T) {
	s := New(nil, &entMock{})

	_, err := s.Credit(context.Background(), 404, decimal.RequireFromString("10"))
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCredit_Success(t *testing.T) {
	m := &entMock{
		userByIDFn: func(ctx context.Context, userID int64) (*model.User, error) {
			return &model.User{ID: userID}, nil
		},
		creditFn: func(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
			return decimal.RequireFromString("60"), nil
		},
	}
	s := New(nil, m)

	bal, err := s.Credit(context.Background(), 1, decimal.RequireFromString("50"))
	require.NoError(t, err)
	require.True(t, bal.Equal(decimal.RequireFromString("60")))
}

func TestMe_NotFound(t *testing.T) {
	s := New(nil, &entMock{})

	_, err := s.Me(context.Background(), 404)
	require.ErrorIs(t, err, ErrUserNotFound)
}
