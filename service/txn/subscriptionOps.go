package txn

import (
	"context"
	"fmt"
	"time"

	"github.com/r6mez/Digital-Library-API/model"
)

// ActivateSubscription charges the plan price and opens a new active
// subscription window. Expired history rows never block a new activation;
// only a record with a deadline still in the future does.
func (s *service) ActivateSubscription(ctx context.Context, userID, planID int64) (res *SubscriptionResult, err error) {
	plan, err := s.cat.PlanByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
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

	// active_subscriptions has no uniqueness backstop the way owned_books
	// does, so the duplicate check below must be serialized. The user row
	// lock makes two concurrent activations run one after the other; the
	// loser then sees the winner's record and conflicts.
	locked, err := s.ent.LockUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, makeErr(ErrNotFound)
	}

	existing, err := s.ent.LatestActiveSubscription(ctx, tx, userID, s.now())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, makeErr(ErrConflict)
	}

	if err = s.debit(ctx, tx, userID, plan.Price); err != nil {
		return nil, err
	}

	start := s.now()
	deadline := start.Add(time.Duration(plan.DurationInDays) * 24 * time.Hour)
	active, err := s.ent.InsertActiveSubscription(ctx, tx, userID, planID, start, deadline)
	if err != nil {
		return nil, err
	}

	entry := &model.LedgerEntry{
		UserID:      userID,
		Kind:        model.KindSubscription,
		Amount:      plan.Price,
		Description: fmt.Sprintf("Subscription purchase: %s", plan.Name),
	}
	if err = s.led.Append(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.afterCommit(ctx, userID, func(ctx context.Context, u *model.User) error {
		return s.mail.SendSubscription(ctx, u.Email, u.Name, plan.Name, plan.Price, deadline)
	})
	return &SubscriptionResult{Active: active, Entry: entry}, nil
}

// CurrentSubscription reports the user's currently valid activation, or nil
// when none is in force.
func (s *service) CurrentSubscription(ctx context.Context, userID int64) (*model.ActiveSubscription, error) {
	return s.ent.LatestActiveSubscription(ctx, s.db, userID, s.now())
}

// DeactivateSubscription removes an activation record (admin only).
func (s *service) DeactivateSubscription(ctx context.Context, activeID int64) error {
	deleted, err := s.ent.DeleteActiveSubscription(ctx, activeID)
	if err != nil {
		return err
	}
	if !deleted {
		return makeErr(ErrNotFound)
	}
	return nil
}
