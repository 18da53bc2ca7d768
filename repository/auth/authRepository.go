package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/r6mez/Digital-Library-API/model"
	"github.com/r6mez/Digital-Library-API/util/database"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO users(name, email, password_hash)
		VALUES ($1,$2,$3)
		RETURNING id, money, created_at`,
		u.Name, u.Email, u.PasswordHash,
	).Scan(&u.ID, &u.Money, &u.CreatedAt)
}

func (r *repo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := r.db.Pool.QueryRow(ctx, `
        SELECT id, name, email, password_hash, money, is_admin, email_verified, created_at
        FROM users
        WHERE lower(email) = lower($1)`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Money, &u.IsAdmin, &u.EmailVerified, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
