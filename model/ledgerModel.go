// model/ledger.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxnKind string

const (
	KindPurchase      TxnKind = "PURCHASE"
	KindBorrow        TxnKind = "BORROW"
	KindSubscription  TxnKind = "SUBSCRIPTION"
	KindPurchaseOffer TxnKind = "PURCHASE_OFFER"
)

// LedgerEntry is an append-only record of one monetary event. Entries are
// never updated or deleted; revenue reporting sums them by kind and window.
type LedgerEntry struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	BookID      *int64          `json:"book_id,omitempty"`
	OfferID     *int64          `json:"offer_id,omitempty"`
	Kind        TxnKind         `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
