package entitlement

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/r6mez/Digital-Library-API/app/echoServer/jwtx"
	"github.com/r6mez/Digital-Library-API/service/txn"
)

type Controller struct {
	Svc txn.Service
	V   *validator.Validate
	Log *slog.Logger
}

type BorrowReq struct {
	Days int `json:"days" validate:"required,min=1,max=30"`
}

func bookID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// status translates the coordinator's error codes for HTTP callers.
func status(c echo.Context, log *slog.Logger, op string, err error) error {
	switch txn.Code(err) {
	case txn.ErrNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "book not found")
	case txn.ErrConflict:
		return echo.NewHTTPError(http.StatusConflict, "conflicting entitlement")
	case txn.ErrInsufficientFunds:
		return echo.NewHTTPError(http.StatusBadRequest, "insufficient funds")
	case txn.ErrGone:
		return echo.NewHTTPError(http.StatusGone, "offer expired")
	case txn.ErrInvalidInput:
		return echo.NewHTTPError(http.StatusBadRequest, "bad input")
	default:
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		log.Error(op, "err", err, "req_id", rid)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// POST /v1/books/:id/buy
func (ct *Controller) Buy(c echo.Context) error {
	id, ok := bookID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	owned, err := ct.Svc.Buy(c.Request().Context(), uid, id)
	if err != nil {
		return status(c, ct.Log, "buy", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "purchased",
		"owned":   owned,
	})
}

// POST /v1/books/:id/borrow
func (ct *Controller) Borrow(c echo.Context) error {
	id, ok := bookID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req BorrowReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	out, err := ct.Svc.Borrow(c.Request().Context(), uid, id, req.Days)
	if err != nil {
		return status(c, ct.Log, "borrow", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "borrowed",
		"borrowed_book": out.Borrow,
		"transaction":   out.Entry,
	})
}

// POST /v1/books/:id/return
func (ct *Controller) Return(c echo.Context) error {
	id, ok := bookID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	if err := ct.Svc.Return(c.Request().Context(), uid, id); err != nil {
		return status(c, ct.Log, "return", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "returned"})
}

// GET /v1/books/:id/access
func (ct *Controller) Access(c echo.Context) error {
	id, ok := bookID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	access, err := ct.Svc.CheckAccess(c.Request().Context(), uid, id)
	if err != nil {
		return status(c, ct.Log, "access", err)
	}
	if !access.Granted {
		return c.JSON(http.StatusForbidden, access)
	}
	return c.JSON(http.StatusOK, access)
}
