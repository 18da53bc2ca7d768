// model/subscription.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionPlan struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	DurationInDays int             `json:"duration_in_days"`
	MaximumBorrow  int             `json:"maximum_borrow"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ActiveSubscription is one paid activation of a plan. Validity is never
// stored; it is derived from the deadline at query time.
type ActiveSubscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlanID    int64     `json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	Deadline  time.Time `json:"deadline"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *ActiveSubscription) Active(now time.Time) bool {
	return s.Deadline.After(now)
}
