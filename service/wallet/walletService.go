// Package wallet covers the account-money surface that is not part of a
// purchase flow: reading a balance, the user's profile and admin top-ups.
package wallet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/model"
	entrepo "github.com/r6mez/Digital-Library-API/repository/entitlement"
	"github.com/r6mez/Digital-Library-API/util/database"
)

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrUserNotFound  = errors.New("user not found")
)

type Service interface {
	Me(ctx context.Context, userID int64) (*model.User, error)
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
}

type service struct {
	db  database.Store
	ent entrepo.Repo
}

func New(db database.Store, ent entrepo.Repo) Service {
	return &service{db: db, ent: ent}
}

func (s *service) Me(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.ent.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *service) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.ent.Balance(ctx, s.db, userID)
}

// Credit is the admin top-up. It is not a revenue event so nothing is
// appended to the ledger.
func (s *service) Credit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	if u, err := s.ent.UserByID(ctx, userID); err != nil {
		return decimal.Zero, err
	} else if u == nil {
		return decimal.Zero, ErrUserNotFound
	}
	return s.ent.CreditBalance(ctx, userID, amount)
}
