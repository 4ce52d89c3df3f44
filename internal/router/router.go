package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/train-ticket-inventory/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers the health check endpoint on the provided
// Echo instance.  Load balancers and monitoring systems use it to
// verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterTickets registers the purchase and order-lifecycle routes.
// The remaining-ticket read goes to the derived cache; everything
// else flows through the allocation engine and the order services.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler) {
	g := e.Group("/v1")
	// Allocate seats for a multi-passenger purchase.
	g.POST("/tickets/purchase", t.Purchase)
	// Read the cached remaining count for a segment and seat class.
	g.GET("/tickets/remaining", t.Remaining)
	// Cancel an unpaid order; conflicts surface as 409.
	g.POST("/orders/:sn/cancel", t.Cancel)
	// Move an order along one lifecycle edge (pay, refund, complete).
	g.POST("/orders/:sn/status", t.Reversal)
}
