// model/offer.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Offer struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	ExpiresAt       time.Time       `json:"expires_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (o *Offer) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

type OfferedBook struct {
	ID      int64 `json:"id"`
	OfferID int64 `json:"offer_id"`
	BookID  int64 `json:"book_id"`
}
