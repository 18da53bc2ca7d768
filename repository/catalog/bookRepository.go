// Package catalog is the read/write store for books, subscription plans and
// the author/category/type lookup tables. The transaction coordinator only
// consumes the read accessors; catalog writes are plain admin CRUD.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/r6mez/Digital-Library-API/model"
	"github.com/r6mez/Digital-Library-API/util/database"
)

type BookFilter struct {
	Name       string
	CategoryID int64
	TypeID     int64
	Page       int
	Limit      int
}

type Repo interface {
	CreateBook(ctx context.Context, b *model.Book) error
	UpdateBook(ctx context.Context, b *model.Book) (bool, error)
	DeleteBook(ctx context.Context, id int64) (bool, error)
	BookByID(ctx context.Context, id int64) (*model.Book, error)
	BooksByIDs(ctx context.Context, ids []int64) ([]model.Book, error)
	ListBooks(ctx context.Context, f BookFilter) ([]model.Book, int64, error)

	CreatePlan(ctx context.Context, p *model.SubscriptionPlan) error
	UpdatePlan(ctx context.Context, p *model.SubscriptionPlan) (bool, error)
	DeletePlan(ctx context.Context, id int64) (bool, error)
	PlanByID(ctx context.Context, id int64) (*model.SubscriptionPlan, error)
	ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error)

	CreateAuthor(ctx context.Context, name string) (int64, error)
	ListAuthors(ctx context.Context) ([]model.Author, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateType(ctx context.Context, name string) (int64, error)
	ListTypes(ctx context.Context) ([]model.BookType, error)
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db: db} }

const bookCols = `id, name, description, author_id, category_id, type_id, buy_price, borrow_price_per_day, pdf_path, created_at`

func scanBook(row pgx.Row, b *model.Book) error {
	return row.Scan(&b.ID, &b.Name, &b.Description, &b.AuthorID, &b.CategoryID, &b.TypeID,
		&b.BuyPrice, &b.BorrowPricePerDay, &b.PDFPath, &b.CreatedAt)
}

func (r *repo) CreateBook(ctx context.Context, b *model.Book) error {
	const q = `
INSERT INTO books (name, description, author_id, category_id, type_id, buy_price, borrow_price_per_day, pdf_path)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id, created_at`
	return r.db.Pool.QueryRow(ctx, q,
		b.Name, b.Description, b.AuthorID, b.CategoryID, b.TypeID,
		b.BuyPrice, b.BorrowPricePerDay, b.PDFPath,
	).Scan(&b.ID, &b.CreatedAt)
}

func (r *repo) UpdateBook(ctx context.Context, b *model.Book) (bool, error) {
	const q = `
UPDATE books
SET name=$2, description=$3, author_id=$4, category_id=$5, type_id=$6,
    buy_price=$7, borrow_price_per_day=$8, pdf_path=$9
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q,
		b.ID, b.Name, b.Description, b.AuthorID, b.CategoryID, b.TypeID,
		b.BuyPrice, b.BorrowPricePerDay, b.PDFPath)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) DeleteBook(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM books WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repo) BookByID(ctx context.Context, id int64) (*model.Book, error) {
	var b model.Book
	err := scanBook(r.db.Pool.QueryRow(ctx, `SELECT `+bookCols+` FROM books WHERE id=$1`, id), &b)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) BooksByIDs(ctx context.Context, ids []int64) ([]model.Book, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+bookCols+` FROM books WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) ListBooks(ctx context.Context, f BookFilter) ([]model.Book, int64, error) {
	where := []string{"TRUE"}
	args := []any{}
	if f.Name != "" {
		args = append(args, "%"+f.Name+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if f.CategoryID > 0 {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.TypeID > 0 {
		args = append(args, f.TypeID)
		where = append(where, fmt.Sprintf("type_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM books WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`SELECT %s FROM books WHERE %s ORDER BY id LIMIT $%d OFFSET $%d`,
		bookCols, cond, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := scanBook(rows, &b); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}
