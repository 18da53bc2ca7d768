package book

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/r6mez/Digital-Library-API/model"
	catalogsvc "github.com/r6mez/Digital-Library-API/service/catalog"
)

type Controller struct {
	Svc catalogsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /v1/books
func (ct *Controller) List(c echo.Context) error {
	var f catalogsvc.BookFilter
	f.Name = c.QueryParam("name")
	f.CategoryID, _ = strconv.ParseInt(c.QueryParam("category_id"), 10, 64)
	f.TypeID, _ = strconv.ParseInt(c.QueryParam("type_id"), 10, 64)
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	books, total, err := ct.Svc.ListBooks(c.Request().Context(), f)
	if err != nil {
		ct.Log.Error("book list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": books, "total": total})
}

// GET /v1/books/:id
func (ct *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := ct.Svc.BookDetail(c.Request().Context(), id)
	if err != nil {
		ct.Log.Error("book detail", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if b == nil {
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// POST /v1/books (admin)
func (ct *Controller) Create(c echo.Context) error {
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	b := &model.Book{
		Name:              req.Name,
		Description:       req.Description,
		AuthorID:          req.AuthorID,
		CategoryID:        req.CategoryID,
		TypeID:            req.TypeID,
		BuyPrice:          req.BuyPrice,
		BorrowPricePerDay: req.BorrowPricePerDay,
		PDFPath:           req.PDFPath,
	}
	if err := ct.Svc.CreateBook(c.Request().Context(), b); err != nil {
		if errors.Is(err, catalogsvc.ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		ct.Log.Error("book create", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": b})
}

// PUT /v1/books/:id (admin)
func (ct *Controller) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	b := &model.Book{
		ID:                id,
		Name:              req.Name,
		Description:       req.Description,
		AuthorID:          req.AuthorID,
		CategoryID:        req.CategoryID,
		TypeID:            req.TypeID,
		BuyPrice:          req.BuyPrice,
		BorrowPricePerDay: req.BorrowPricePerDay,
		PDFPath:           req.PDFPath,
	}
	updated, err := ct.Svc.UpdateBook(c.Request().Context(), b)
	if err != nil {
		if errors.Is(err, catalogsvc.ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		ct.Log.Error("book update", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// DELETE /v1/books/:id (admin)
func (ct *Controller) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	deleted, err := ct.Svc.DeleteBook(c.Request().Context(), id)
	if err != nil {
		ct.Log.Error("book delete", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// taxonomy lookups used when creating books

func (ct *Controller) ListAuthors(c echo.Context) error {
	rows, err := ct.Svc.ListAuthors(c.Request().Context())
	if err != nil {
		ct.Log.Error("author list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func (ct *Controller) CreateAuthor(c echo.Context) error {
	return ct.createNamed(c, ct.Svc.CreateAuthor)
}

func (ct *Controller) ListCategories(c echo.Context) error {
	rows, err := ct.Svc.ListCategories(c.Request().Context())
	if err != nil {
		ct.Log.Error("category list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func (ct *Controller) CreateCategory(c echo.Context) error {
	return ct.createNamed(c, ct.Svc.CreateCategory)
}

func (ct *Controller) ListTypes(c echo.Context) error {
	rows, err := ct.Svc.ListTypes(c.Request().Context())
	if err != nil {
		ct.Log.Error("type list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

func (ct *Controller) CreateType(c echo.Context) error {
	return ct.createNamed(c, ct.Svc.CreateType)
}

func (ct *Controller) createNamed(c echo.Context, create func(ctx context.Context, name string) (int64, error)) error {
	var req NameReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}
	id, err := create(c.Request().Context(), req.Name)
	if err != nil {
		if errors.Is(err, catalogsvc.ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		ct.Log.Error("taxonomy create", "path", c.Path(), "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": req.Name})
}
