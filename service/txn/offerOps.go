package txn

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/model"
	"github.com/r6mez/Digital-Library-API/util/database"
)

// resolveOfferBooks validates and dedupes a bundle's book ids, loads them and
// sums their purchase prices. All ids must exist.
func (s *service) resolveOfferBooks(ctx context.Context, bookIDs []int64) ([]model.Book, decimal.Decimal, error) {
	seen := make(map[int64]struct{}, len(bookIDs))
	unique := make([]int64, 0, len(bookIDs))
	for _, id := range bookIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) < 2 {
		return nil, decimal.Zero, makeErr(ErrInvalidInput)
	}

	books, err := s.cat.BooksByIDs(ctx, unique)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if len(books) != len(unique) {
		return nil, decimal.Zero, makeErr(ErrNotFound)
	}

	total := decimal.Zero
	for _, b := range books {
		total = total.Add(b.BuyPrice)
	}
	return books, total, nil
}

// CreateOffer builds a discounted bundle for the user: 75% of the summed
// purchase prices, valid for 24 hours. The user's balance must already cover
// the discounted price, though nothing is charged until AcceptOffer.
func (s *service) CreateOffer(ctx context.Context, userID int64, bookIDs []int64) (res *OfferResult, err error) {
	books, total, err := s.resolveOfferBooks(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	discounted := total.Mul(offerDiscount)

	balance, err := s.ent.Balance(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(discounted) {
		return nil, makeErr(ErrInsufficientFunds)
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

	offer := &model.Offer{
		UserID:          userID,
		OriginalPrice:   total,
		DiscountedPrice: discounted,
		ExpiresAt:       s.now().Add(offerTTL),
	}
	ids := make([]int64, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	if err = s.off.Insert(ctx, tx, offer, ids); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &OfferResult{Offer: offer, Books: books}, nil
}

// GetOffer loads a bundle with its books. An expired bundle is reported
// gone, same as an acceptance attempt would be.
func (s *service) GetOffer(ctx context.Context, offerID int64) (*OfferResult, error) {
	offer, err := s.off.ByID(ctx, s.db, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, makeErr(ErrNotFound)
	}
	if offer.Expired(s.now()) {
		return nil, makeErr(ErrGone)
	}
	books, err := s.off.Books(ctx, s.db, offerID)
	if err != nil {
		return nil, err
	}
	return &OfferResult{Offer: offer, Books: books}, nil
}

// AcceptOffer charges the discounted price and grants ownership of every
// bundled book, all in one transaction. An expired offer is gone, and a
// bundle containing any already-owned book is rejected whole.
func (s *service) AcceptOffer(ctx context.Context, userID, offerID int64) (res *AcceptOfferResult, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	offer, err := s.off.ByID(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, makeErr(ErrNotFound)
	}
	if offer.Expired(s.now()) {
		return nil, makeErr(ErrGone)
	}

	books, err := s.off.Books(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}

	ownedIDs, err := s.ent.OwnedAmong(ctx, tx, userID, ids)
	if err != nil {
		return nil, err
	}
	if len(ownedIDs) > 0 {
		return nil, &OwnedBooksError{BookIDs: ownedIDs}
	}

	if err = s.debit(ctx, tx, userID, offer.DiscountedPrice); err != nil {
		return nil, err
	}

	owned := make([]model.OwnedBook, 0, len(books))
	for _, b := range books {
		var ob *model.OwnedBook
		ob, err = s.ent.InsertOwned(ctx, tx, userID, b.ID)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return nil, makeErr(ErrConflict)
			}
			return nil, err
		}
		owned = append(owned, *ob)
	}

	entry := &model.LedgerEntry{
		UserID:      userID,
		OfferID:     &offerID,
		Kind:        model.KindPurchaseOffer,
		Amount:      offer.DiscountedPrice,
		Description: fmt.Sprintf("Purchase of offer %d", offerID),
	}
	if err = s.led.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	names := make([]string, len(books))
	for i, b := range books {
		names[i] = b.Name
	}
	s.afterCommit(ctx, userID, func(ctx context.Context, u *model.User) error {
		return s.mail.SendOfferPurchase(ctx, u.Email, u.Name, names, offer.DiscountedPrice)
	})
	return &AcceptOfferResult{Owned: owned, Entry: entry}, nil
}

// UpdateOffer swaps the bundle's books and reprices it. The expiry is kept;
// an already expired offer cannot be edited.
func (s *service) UpdateOffer(ctx context.Context, offerID int64, bookIDs []int64) (updated *model.Offer, err error) {
	books, total, err := s.resolveOfferBooks(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	discounted := total.Mul(offerDiscount)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	offer, err := s.off.ByID(ctx, tx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, makeErr(ErrNotFound)
	}
	if offer.Expired(s.now()) {
		return nil, makeErr(ErrGone)
	}

	ids := make([]int64, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	if err = s.off.ReplaceBooks(ctx, tx, offerID, ids); err != nil {
		return nil, err
	}
	if err = s.off.UpdatePrices(ctx, tx, offerID, total, discounted); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	offer.OriginalPrice = total
	offer.DiscountedPrice = discounted
	return offer, nil
}

// DeleteOffer removes a bundle and its join rows, expired or not.
func (s *service) DeleteOffer(ctx context.Context, offerID int64) error {
	deleted, err := s.off.Delete(ctx, offerID)
	if err != nil {
		return err
	}
	if !deleted {
		return makeErr(ErrNotFound)
	}
	return nil
}
