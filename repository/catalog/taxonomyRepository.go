package catalog

import (
	"context"

	"github.com/r6mez/Digital-Library-API/model"
)

func (r *repo) CreateAuthor(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `INSERT INTO authors (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

func (r *repo) ListAuthors(ctx context.Context) ([]model.Author, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM authors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		var a model.Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repo) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

func (r *repo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repo) CreateType(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx, `INSERT INTO types (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	return id, err
}

func (r *repo) ListTypes(ctx context.Context) ([]model.BookType, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookType
	for rows.Next() {
		var t model.BookType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
