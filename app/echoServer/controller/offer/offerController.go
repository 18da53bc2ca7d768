package offer

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

type OfferReq struct {
	BookIDs []int64 `json:"book_ids" validate:"required,min=2,dive,gt=0"`
}

func offerID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (ct *Controller) fail(c echo.Context, op string, err error) error {
	switch txn.Code(err) {
	case txn.ErrNotFound:
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case txn.ErrGone:
		return echo.NewHTTPError(http.StatusGone, "offer expired")
	case txn.ErrInsufficientFunds:
		return echo.NewHTTPError(http.StatusBadRequest, "insufficient funds")
	case txn.ErrInvalidInput:
		return echo.NewHTTPError(http.StatusBadRequest, "bad input")
	case txn.ErrConflict:
		if ids := txn.OwnedIDs(err); len(ids) > 0 {
			return c.JSON(http.StatusConflict, echo.Map{
				"message":        "offer contains already owned books",
				"owned_book_ids": ids,
			})
		}
		return echo.NewHTTPError(http.StatusConflict, "conflict")
	default:
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		ct.Log.Error(op, "err", err, "req_id", rid)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// POST /v1/offers
func (ct *Controller) Create(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	var req OfferReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	out, err := ct.Svc.CreateOffer(c.Request().Context(), uid, req.BookIDs)
	if err != nil {
		return ct.fail(c, "offer create", err)
	}
	return c.JSON(http.StatusCreated, out)
}

// GET /v1/offers/:id
func (ct *Controller) Get(c echo.Context) error {
	id, ok := offerID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	out, err := ct.Svc.GetOffer(c.Request().Context(), id)
	if err != nil {
		return ct.fail(c, "offer get", err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /v1/offers/:id/accept
func (ct *Controller) Accept(c echo.Context) error {
	id, ok := offerID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	out, err := ct.Svc.AcceptOffer(c.Request().Context(), uid, id)
	if err != nil {
		return ct.fail(c, "offer accept", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "offer purchased",
		"owned":       out.Owned,
		"transaction": out.Entry,
	})
}

// PUT /v1/offers/:id (admin)
func (ct *Controller) Update(c echo.Context) error {
	id, ok := offerID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req OfferReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	out, err := ct.Svc.UpdateOffer(c.Request().Context(), id, req.BookIDs)
	if err != nil {
		return ct.fail(c, "offer update", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// DELETE /v1/offers/:id (admin)
func (ct *Controller) Delete(c echo.Context) error {
	id, ok := offerID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := ct.Svc.DeleteOffer(c.Request().Context(), id); err != nil {
		return ct.fail(c, "offer delete", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
