package wallet

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/app/echoServer/jwtx"
	walletsvc "github.com/r6mez/Digital-Library-API/service/wallet"
)

type Controller struct {
	Svc walletsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type CreditReq struct {
	Amount decimal.Decimal `json:"amount"`
}

// GET /v1/users/me
func (ct *Controller) Me(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	u, err := ct.Svc.Me(c.Request().Context(), uid)
	if err != nil {
		if errors.Is(err, walletsvc.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		ct.Log.Error("me", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": u})
}

// POST /v1/users/:id/credit (admin)
func (ct *Controller) Credit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req CreditReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	balance, err := ct.Svc.Credit(c.Request().Context(), id, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, walletsvc.ErrInvalidAmount):
			return echo.NewHTTPError(http.StatusBadRequest, "amount must be positive")
		case errors.Is(err, walletsvc.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			ct.Log.Error("credit", "err", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "credited",
		"balance": balance,
	})
}
