package book

import "github.com/shopspring/decimal"

type BookReq struct {
	Name              string          `json:"name" validate:"required"`
	Description       string          `json:"description"`
	AuthorID          int64           `json:"author_id" validate:"required,gt=0"`
	CategoryID        int64           `json:"category_id" validate:"required,gt=0"`
	TypeID            int64           `json:"type_id" validate:"required,gt=0"`
	BuyPrice          decimal.Decimal `json:"buy_price"`
	BorrowPricePerDay decimal.Decimal `json:"borrow_price_per_day"`
	PDFPath           *string         `json:"pdf_path,omitempty"`
}

type NameReq struct {
	Name string `json:"name" validate:"required"`
}
