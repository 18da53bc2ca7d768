package subscription

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/r6mez/Digital-Library-API/app/echoServer/jwtx"
	"github.com/r6mez/Digital-Library-API/model"
	catalogsvc "github.com/r6mez/Digital-Library-API/service/catalog"
	"github.com/r6mez/Digital-Library-API/service/txn"
)

type Controller struct {
	Catalog catalogsvc.Service
	Txn     txn.Service
	V       *validator.Validate
	Log     *slog.Logger
}

type PlanReq struct {
	Name           string          `json:"name" validate:"required"`
	Price          decimal.Decimal `json:"price"`
	DurationInDays int             `json:"duration_in_days" validate:"required,gt=0"`
	MaximumBorrow  int             `json:"maximum_borrow" validate:"min=0"`
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /v1/plans
func (ct *Controller) ListPlans(c echo.Context) error {
	rows, err := ct.Catalog.ListPlans(c.Request().Context())
	if err != nil {
		ct.Log.Error("plan list", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/plans (admin)
func (ct *Controller) CreatePlan(c echo.Context) error {
	var req PlanReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	p := &model.SubscriptionPlan{
		Name:           req.Name,
		Price:          req.Price,
		DurationInDays: req.DurationInDays,
		MaximumBorrow:  req.MaximumBorrow,
	}
	if err := ct.Catalog.CreatePlan(c.Request().Context(), p); err != nil {
		if errors.Is(err, catalogsvc.ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		ct.Log.Error("plan create", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": p})
}

// PUT /v1/plans/:id (admin)
func (ct *Controller) UpdatePlan(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req PlanReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := ct.V.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}

	p := &model.SubscriptionPlan{
		ID:             id,
		Name:           req.Name,
		Price:          req.Price,
		DurationInDays: req.DurationInDays,
		MaximumBorrow:  req.MaximumBorrow,
	}
	updated, err := ct.Catalog.UpdatePlan(c.Request().Context(), p)
	if err != nil {
		if errors.Is(err, catalogsvc.ErrInvalid) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		ct.Log.Error("plan update", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !updated {
		return echo.NewHTTPError(http.StatusNotFound, "plan not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": p})
}

// DELETE /v1/plans/:id (admin)
func (ct *Controller) DeletePlan(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	deleted, err := ct.Catalog.DeletePlan(c.Request().Context(), id)
	if err != nil {
		ct.Log.Error("plan delete", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "plan not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}

// POST /v1/plans/:id/subscribe
func (ct *Controller) Activate(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}

	out, err := ct.Txn.ActivateSubscription(c.Request().Context(), uid, id)
	if err != nil {
		switch txn.Code(err) {
		case txn.ErrNotFound:
			return echo.NewHTTPError(http.StatusNotFound, "plan not found")
		case txn.ErrConflict:
			return echo.NewHTTPError(http.StatusConflict, "subscription already active")
		case txn.ErrInsufficientFunds:
			return echo.NewHTTPError(http.StatusBadRequest, "insufficient funds")
		default:
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			ct.Log.Error("subscribe", "err", err, "req_id", rid)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":             "subscribed",
		"active_subscription": out.Active,
		"transaction":         out.Entry,
	})
}

// GET /v1/subscriptions/my
func (ct *Controller) My(c echo.Context) error {
	uid, err := jwtx.UserIDFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	sub, err := ct.Txn.CurrentSubscription(c.Request().Context(), uid)
	if err != nil {
		ct.Log.Error("my subscription", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if sub == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no active subscription")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": sub})
}

// DELETE /v1/subscriptions/:id (admin)
func (ct *Controller) Deactivate(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := ct.Txn.DeactivateSubscription(c.Request().Context(), id); err != nil {
		if txn.Code(err) == txn.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
		}
		ct.Log.Error("subscription deactivate", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deactivated"})
}
