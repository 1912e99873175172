package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-pos/internal/handler"
	"github.com/iliyamo/restaurant-pos/internal/middleware"
	"github.com/iliyamo/restaurant-pos/internal/model"
)

// RegisterAdmin registers ADMIN-only endpoints: catalog writes, inventory,
// sales and reports.  Reports go through the response cache.
func RegisterAdmin(e *echo.Echo, p *handler.POSHandler, jwtSecret string, limit, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
		limit,
	)

	g.POST("/menu", p.CreateMenuItem)
	g.PUT("/menu/:id", p.UpdateMenuItem)
	g.DELETE("/menu/:id", p.DeleteMenuItem)

	g.GET("/inventory", p.ListInventory)
	g.GET("/inventory/:id", p.GetInventoryItem)
	g.POST("/inventory", p.CreateInventoryItem)
	g.PUT("/inventory/:id", p.UpdateInventoryItem)
	g.DELETE("/inventory/:id", p.DeleteInventoryItem)

	g.GET("/sales", p.ListSales)
	g.GET("/reports", p.Report, cache)
}
