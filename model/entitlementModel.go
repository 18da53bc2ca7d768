// model/entitlement.go
package model

import "time"

// OwnedBook records an outright purchase. At most one per (user, book),
// enforced by a unique index.
type OwnedBook struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BorrowedBook is a time-boxed loan. The record is deleted on return; a
// record whose return date has passed grants no access but is kept until
// the user returns it.
type BorrowedBook struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	BookID       int64     `json:"book_id"`
	BorrowedDate time.Time `json:"borrowed_date"`
	ReturnDate   time.Time `json:"return_date"`
	CreatedAt    time.Time `json:"created_at"`
}
