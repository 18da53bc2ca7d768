package report

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/r6mez/Digital-Library-API/app/echoServer/jwtx"
	ledgersvc "github.com/r6mez/Digital-Library-API/service/ledger"
)

type Controller struct {
	Svc ledgersvc.Service
	Log *slog.Logger
}

// window parses the optional from/to (RFC3339) or days query parameters.
// Absent bounds stay nil and the service applies its default window.
func window(c echo.Context) (from, to *time.Time, err error) {
	if v := c.QueryParam("from"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, perr
		}
		from = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, nil, perr
		}
		to = &t
	}
	if v := c.QueryParam("days"); v != "" && from == nil {
		days, perr := strconv.Atoi(v)
		if perr != nil || days <= 0 {
			return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		t := time.Now().AddDate(0, 0, -days)
		from = &t
	}
	return from, to, nil
}

// GET /v1/transactions/my
func (ct *Controller) MyTransactions(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	rows, err := ct.Svc.MyHistory(c.Request().Context(), uid)
	if err != nil {
		ct.Log.Error("transaction history", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/reports/revenue (admin)
func (ct *Controller) TotalRevenue(c echo.Context) error {
	from, to, err := window(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid time window")
	}
	out, err := ct.Svc.TotalRevenue(c.Request().Context(), from, to)
	if err != nil {
		ct.Log.Error("revenue report", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/reports/revenue/by-type (admin)
func (ct *Controller) RevenueByType(c echo.Context) error {
	from, to, err := window(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid time window")
	}
	out, err := ct.Svc.RevenueByKind(c.Request().Context(), from, to)
	if err != nil {
		ct.Log.Error("revenue by type report", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/reports/books/borrowed (admin)
func (ct *Controller) BorrowedBooks(c echo.Context) error {
	from, to, err := window(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid time window")
	}
	out, err := ct.Svc.BorrowedBooks(c.Request().Context(), from, to)
	if err != nil {
		ct.Log.Error("borrowed books report", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/reports/books/sold (admin)
func (ct *Controller) SoldBooks(c echo.Context) error {
	from, to, err := window(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid time window")
	}
	out, err := ct.Svc.SoldBooks(c.Request().Context(), from, to)
	if err != nil {
		ct.Log.Error("sold books report", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/reports/statistics (admin)
func (ct *Controller) LibraryStatistics(c echo.Context) error {
	out, err := ct.Svc.LibraryStatistics(c.Request().Context())
	if err != nil {
		ct.Log.Error("library statistics", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, out)
}
