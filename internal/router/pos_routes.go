package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/handler"
	"github.com/iliyamo/restaurant-pos/internal/middleware"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// RegisterPOS registers the floor endpoints shared by waiters and admins.
func RegisterPOS(e *echo.Echo, p *handler.POSHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleWaiter),
		limit,
	)

	// ---- Tables ----
	g.GET("/tables", p.ListTables)
	g.POST("/tables", p.CreateTable)
	g.GET("/tables/:id", p.GetTable)
	g.PATCH("/tables/:id", p.UpdateTable)
	g.DELETE("/tables/:id", p.DeleteTable)
	g.POST("/tables/:id/consume", p.StartConsuming)
	g.POST("/tables/:id/arrival", p.ConfirmArrival)
	g.POST("/tables/:id/release", p.ReleaseTable)

	// ---- Orders ----
	g.POST("/tables/:id/orders", p.CreateOrder)
	g.PUT("/tables/:id/orders", p.EditOrders)
	g.GET("/orders", p.ListOrders)
	g.GET("/orders/:id", p.GetOrder)
	g.PATCH("/orders/:id", p.UpdateOrder)
	g.DELETE("/orders/:id", p.DeleteOrder)

	// ---- Payment and reservations ----
	g.POST("/tables/:id/payment", p.ProcessPayment)
	g.POST("/tables/:id/reservation", p.ReserveTable)
	g.DELETE("/tables/:id/reservation", p.CancelReservation)
	g.GET("/reservations", p.ListReservations)

	// ---- Menu (read) ----
	g.GET("/menu", p.ListMenu)
	g.GET("/menu/:id", p.GetMenuItem)
}
