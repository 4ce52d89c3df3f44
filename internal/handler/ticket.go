package handler

import (
	"errors"   // for errors.As/Is comparisons
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/train-ticket-inventory/internal/allocation"
	"github.com/iliyamo/train-ticket-inventory/internal/cachesync"
	"github.com/iliyamo/train-ticket-inventory/internal/model"
	"github.com/iliyamo/train-ticket-inventory/internal/orderlock"
	"github.com/iliyamo/train-ticket-inventory/internal/repository"
	"github.com/iliyamo/train-ticket-inventory/internal/service"
)

// TicketHandler exposes the purchase and lifecycle operations over
// HTTP.  The handlers stay thin: every business decision, including
// which failures are conflicts and which are inventory shortfalls,
// is made below the service boundary and only translated to status
// codes here.
type TicketHandler struct {
	Tickets *service.TicketService
	Orders  *service.OrderService
	Cache   *cachesync.RedisCache
}

// NewTicketHandler constructs a TicketHandler with the provided
// services.
func NewTicketHandler(tickets *service.TicketService, orders *service.OrderService, cache *cachesync.RedisCache) *TicketHandler {
	if tickets == nil || orders == nil {
		panic("nil service passed to NewTicketHandler")
	}
	return &TicketHandler{Tickets: tickets, Orders: orders, Cache: cache}
}

// Purchase handles POST /v1/tickets/purchase.  The request carries
// the segment, the vehicle class and one entry per passenger.
func (h *TicketHandler) Purchase(c echo.Context) error {
	var req service.PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(req.Passengers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passengers is required"})
	}
	result, err := h.Tickets.Purchase(c.Request().Context(), req)
	if err != nil {
		return purchaseError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// purchaseError maps the allocation error taxonomy onto HTTP.
func purchaseError(c echo.Context, err error) error {
	var insufficient *allocation.InsufficientError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "insufficient seats",
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	}
	var unsupported *allocation.UnsupportedError
	if errors.As(err, &unsupported) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":         "unsupported vehicle/seat combination",
			"vehicle_class": unsupported.Vehicle,
			"seat_class":    unsupported.Class,
		})
	}
	var remote *service.RemoteError
	if errors.As(err, &remote) {
		// Seats are committed; the caller must choose between retry
		// and rollback, so the response says which dependency failed
		// and how many seats are held.
		return c.JSON(http.StatusBadGateway, echo.Map{
			"error":           "remote dependency failure",
			"dependency":      remote.Dependency,
			"committed_seats": len(remote.Committed),
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purchase failed"})
}

// Cancel handles POST /v1/orders/:sn/cancel.
func (h *TicketHandler) Cancel(c echo.Context) error {
	orderSN := c.Param("sn")
	if orderSN == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order sn"})
	}
	if err := h.Orders.Close(c.Request().Context(), orderSN); err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order_sn": orderSN, "status": model.OrderClosed})
}

// Reversal handles POST /v1/orders/:sn/status.  The body names the
// target status; the service validates the lifecycle edge.
func (h *TicketHandler) Reversal(c echo.Context) error {
	orderSN := c.Param("sn")
	if orderSN == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order sn"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil || body.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status is required"})
	}
	if err := h.Orders.StatusReversal(c.Request().Context(), orderSN, body.Status); err != nil {
		return lifecycleError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"order_sn": orderSN, "status": body.Status})
}

// lifecycleError maps order lifecycle failures onto HTTP.  Lock
// contention and status conflicts are both 409 but keep distinct
// error strings: the first means "retry shortly", the second means
// "the order moved on".
func lifecycleError(c echo.Context, err error) error {
	if errors.Is(err, orderlock.ErrContended) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "operation already in progress"})
	}
	var conflict *service.StatusConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "status conflict",
			"order_sn": conflict.OrderSN,
			"from":     conflict.From,
			"to":       conflict.To,
		})
	}
	if errors.Is(err, repository.ErrOrderNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// Remaining handles GET /v1/tickets/remaining.  It reads the derived
// cache only; the ledger is never queried on this path.
func (h *TicketHandler) Remaining(c echo.Context) error {
	seg := model.Segment{
		TrainID:   c.QueryParam("train_id"),
		Departure: c.QueryParam("departure"),
		Arrival:   c.QueryParam("arrival"),
	}
	class := model.SeatClass(c.QueryParam("seat_class"))
	if seg.TrainID == "" || seg.Departure == "" || seg.Arrival == "" || !class.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id, departure, arrival and seat_class are required"})
	}
	if h.Cache == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "remaining-ticket cache unavailable"})
	}
	count, err := h.Cache.Remaining(c.Request().Context(), seg, class)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cache error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"train_id":   seg.TrainID,
		"departure":  seg.Departure,
		"arrival":    seg.Arrival,
		"seat_class": class,
		"remaining":  count,
	})
}
