// model/book.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	AuthorID          int64           `json:"author_id"`
	CategoryID        int64           `json:"category_id"`
	TypeID            int64           `json:"type_id"`
	BuyPrice          decimal.Decimal `json:"buy_price"`
	BorrowPricePerDay decimal.Decimal `json:"borrow_price_per_day"`
	PDFPath           *string         `json:"pdf_path,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BookType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
