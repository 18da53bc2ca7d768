package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/r6mez/Digital-Library-API/model"
)

func (r *repo) CreatePlan(ctx context.Context, p *model.SubscriptionPlan) error {
	const q = `
INSERT INTO subscription_plans (name, price, duration_in_days, maximum_borrow)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at`
	return r.db.Pool.QueryRow(ctx, q, p.Name, p.Price, p.DurationInDays, p.MaximumBorrow).
		Scan(&p.ID, &p.CreatedAt)
}

func (r *repo) UpdatePlan(ctx context.Context, p *model.SubscriptionPlan) (bool, error) {
	const q = `
UPDATE subscription_plans
SET name=$2, price=$3, duration_in_days=$4, maximum_borrow=$5
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, p.ID, p.Name, p.Price, p.DurationInDays, p.MaximumBorrow)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) DeletePlan(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM subscription_plans WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) PlanByID(ctx context.Context, id int64) (*model.SubscriptionPlan, error) {
	const q = `
SELECT id, name, price, duration_in_days, maximum_borrow, created_at
FROM subscription_plans WHERE id=$1`
	var p model.SubscriptionPlan
	err := r.db.Pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.DurationInDays, &p.MaximumBorrow, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	const q = `
SELECT id, name, price, duration_in_days, maximum_borrow, created_at
FROM subscription_plans ORDER BY price`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SubscriptionPlan
	for rows.Next() {
		var p model.SubscriptionPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationInDays, &p.MaximumBorrow, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
