package mailer

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repo sends the post-commit confirmation emails. Callers treat every method
// as best-effort: a send failure is logged and must never undo the already
// committed financial effect.
type Repo interface {
	SendPurchase(ctx context.Context, email, name, bookName string, amount decimal.Decimal) error
	SendBorrow(ctx context.Context, email, name, bookName string, days int, amount decimal.Decimal, returnDate time.Time) error
	SendSubscription(ctx context.Context, email, name, planName string, price decimal.Decimal, expiresAt time.Time) error
	SendOfferPurchase(ctx context.Context, email, name string, bookNames []string, amount decimal.Decimal) error
}
