package catalogsvc

import (
	"context"
	"errors"

	"github.com/r6mez/Digital-Library-API/model"
	repo "github.com/r6mez/Digital-Library-API/repository/catalog"
)

type BookFilter = repo.BookFilter

// ErrInvalid marks a payload that failed business validation.
var ErrInvalid = errors.New("invalid payload")

type Service interface {
	CreateBook(ctx context.Context, b *model.Book) error
	UpdateBook(ctx context.Context, b *model.Book) (bool, error)
	DeleteBook(ctx context.Context, id int64) (bool, error)
	BookDetail(ctx context.Context, id int64) (*model.Book, error)
	ListBooks(ctx context.Context, f BookFilter) ([]model.Book, int64, error)

	CreatePlan(ctx context.Context, p *model.SubscriptionPlan) error
	UpdatePlan(ctx context.Context, p *model.SubscriptionPlan) (bool, error)
	DeletePlan(ctx context.Context, id int64) (bool, error)
	ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error)

	CreateAuthor(ctx context.Context, name string) (int64, error)
	ListAuthors(ctx context.Context) ([]model.Author, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateType(ctx context.Context, name string) (int64, error)
	ListTypes(ctx context.Context) ([]model.BookType, error)
}

type service struct{ r repo.Repo }

func New(r repo.Repo) Service { return &service{r: r} }

func validBook(b *model.Book) error {
	if b.Name == "" || b.AuthorID <= 0 || b.CategoryID <= 0 || b.TypeID <= 0 {
		return ErrInvalid
	}
	if b.BuyPrice.IsNegative() || b.BorrowPricePerDay.IsNegative() {
		return ErrInvalid
	}
	return nil
}

func (s *service) CreateBook(ctx context.Context, b *model.Book) error {
	if err := validBook(b); err != nil {
		return err
	}
	return s.r.CreateBook(ctx, b)
}

func (s *service) UpdateBook(ctx context.Context, b *model.Book) (bool, error) {
	if err := validBook(b); err != nil {
		return false, err
	}
	return s.r.UpdateBook(ctx, b)
}

func (s *service) DeleteBook(ctx context.Context, id int64) (bool, error) {
	return s.r.DeleteBook(ctx, id)
}

func (s *service) BookDetail(ctx context.Context, id int64) (*model.Book, error) {
	return s.r.BookByID(ctx, id)
}

func (s *service) ListBooks(ctx context.Context, f BookFilter) ([]model.Book, int64, error) {
	return s.r.ListBooks(ctx, f)
}

func validPlan(p *model.SubscriptionPlan) error {
	if p.Name == "" || p.DurationInDays <= 0 || p.MaximumBorrow < 0 || p.Price.IsNegative() {
		return ErrInvalid
	}
	return nil
}

func (s *service) CreatePlan(ctx context.Context, p *model.SubscriptionPlan) error {
	if err := validPlan(p); err != nil {
		return err
	}
	return s.r.CreatePlan(ctx, p)
}

func (s *service) UpdatePlan(ctx context.Context, p *model.SubscriptionPlan) (bool, error) {
	if err := validPlan(p); err != nil {
		return false, err
	}
	return s.r.UpdatePlan(ctx, p)
}

func (s *service) DeletePlan(ctx context.Context, id int64) (bool, error) {
	return s.r.DeletePlan(ctx, id)
}

func (s *service) ListPlans(ctx context.Context) ([]model.SubscriptionPlan, error) {
	return s.r.ListPlans(ctx)
}

func (s *service) CreateAuthor(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalid
	}
	return s.r.CreateAuthor(ctx, name)
}

func (s *service) ListAuthors(ctx context.Context) ([]model.Author, error) {
	return s.r.ListAuthors(ctx)
}

func (s *service) CreateCategory(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalid
	}
	return s.r.CreateCategory(ctx, name)
}

func (s *service) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.r.ListCategories(ctx)
}

func (s *service) CreateType(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, ErrInvalid
	}
	return s.r.CreateType(ctx, name)
}

func (s *service) ListTypes(ctx context.Context) ([]model.BookType, error) {
	return s.r.ListTypes(ctx)
}
