// Package ledger exposes the transaction history and revenue reports built
// on top of the append-only transactions table.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/model"
	entrepo "github.com/r6mez/Digital-Library-API/repository/entitlement"
	ledrepo "github.com/r6mez/Digital-Library-API/repository/ledger"
)

// defaultReportDays is the reporting window used when the caller gives no
// explicit bounds.
const defaultReportDays = 30

type RevenueReport struct {
	From  time.Time       `json:"from"`
	To    time.Time       `json:"to"`
	Total decimal.Decimal `json:"total"`
}

type RevenueByKindReport struct {
	From  time.Time          `json:"from"`
	To    time.Time          `json:"to"`
	Kinds []ledrepo.KindTotal `json:"by_type"`
}

type BorrowReport struct {
	From  time.Time                 `json:"from"`
	To    time.Time                 `json:"to"`
	Count int                       `json:"count"`
	Books []entrepo.BorrowedBookRow `json:"books"`
}

type SoldReport struct {
	From  time.Time             `json:"from"`
	To    time.Time             `json:"to"`
	Count int                   `json:"count"`
	Books []entrepo.SoldBookRow `json:"books"`
}

type Service interface {
	MyHistory(ctx context.Context, userID int64) ([]model.LedgerEntry, error)
	TotalRevenue(ctx context.Context, from, to *time.Time) (*RevenueReport, error)
	RevenueByKind(ctx context.Context, from, to *time.Time) (*RevenueByKindReport, error)
	BorrowedBooks(ctx context.Context, from, to *time.Time) (*BorrowReport, error)
	SoldBooks(ctx context.Context, from, to *time.Time) (*SoldReport, error)
	LibraryStatistics(ctx context.Context) (*entrepo.LibrarySummary, error)
}

type service struct {
	led   ledrepo.Repo
	stats entrepo.StatsRepo
	now   func() time.Time
}

func New(led ledrepo.Repo, stats entrepo.StatsRepo) Service {
	return &service{led: led, stats: stats, now: time.Now}
}

func (s *service) MyHistory(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	return s.led.ListByUser(ctx, userID)
}

// window fills missing bounds: no "to" means now, no "from" means the last
// defaultReportDays before "to".
func (s *service) window(from, to *time.Time) (time.Time, time.Time) {
	end := s.now()
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -defaultReportDays)
	if from != nil {
		start = *from
	}
	return start, end
}

func (s *service) TotalRevenue(ctx context.Context, from, to *time.Time) (*RevenueReport, error) {
	start, end := s.window(from, to)
	total, err := s.led.RevenueTotal(ctx, &start, &end)
	if err != nil {
		return nil, err
	}
	return &RevenueReport{From: start, To: end, Total: total}, nil
}

func (s *service) RevenueByKind(ctx context.Context, from, to *time.Time) (*RevenueByKindReport, error) {
	start, end := s.window(from, to)
	kinds, err := s.led.RevenueByKind(ctx, &start, &end)
	if err != nil {
		return nil, err
	}
	return &RevenueByKindReport{From: start, To: end, Kinds: kinds}, nil
}

func (s *service) BorrowedBooks(ctx context.Context, from, to *time.Time) (*BorrowReport, error) {
	start, end := s.window(from, to)
	books, err := s.stats.BorrowedInWindow(ctx, &start, &end)
	if err != nil {
		return nil, err
	}
	return &BorrowReport{From: start, To: end, Count: len(books), Books: books}, nil
}

func (s *service) SoldBooks(ctx context.Context, from, to *time.Time) (*SoldReport, error) {
	start, end := s.window(from, to)
	books, err := s.stats.SoldInWindow(ctx, &start, &end)
	if err != nil {
		return nil, err
	}
	return &SoldReport{From: start, To: end, Count: len(books), Books: books}, nil
}

func (s *service) LibraryStatistics(ctx context.Context) (*entrepo.LibrarySummary, error) {
	return s.stats.LibrarySummary(ctx)
}
