package handler // handler contains the HTTP handlers of the point of sale

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	logging "github.com/op/go-logging"

	"github.com/iliyamo/restaurant-pos/internal/lifecycle"
	"github.com/iliyamo/restaurant-pos/internal/report"
	"github.com/iliyamo/restaurant-pos/internal/repository"
)

var log = logging.MustGetLogger("handler")

// POSHandler bundles the controller and the catalog stores used by the
// operator screens.  Table, order, payment and reservation writes always go
// through Ctl; menu and inventory are plain catalog CRUD.
type POSHandler struct {
	Ctl       *lifecycle.Controller
	Menu      *repository.MenuRepo
	Inventory *repository.InventoryRepo
	Reports   *report.Engine
	Now       func() time.Time
}

// NewPOSHandler constructs a POSHandler and panics if a dependency is nil.
func NewPOSHandler(ctl *lifecycle.Controller, menu *repository.MenuRepo, inventory *repository.InventoryRepo, reports *report.Engine) *POSHandler {
	if ctl == nil || menu == nil || inventory == nil || reports == nil {
		panic("nil dependency passed to NewPOSHandler")
	}
	return &POSHandler{Ctl: ctl, Menu: menu, Inventory: inventory, Reports: reports, Now: time.Now}
}

func (h *POSHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// parseID reads a numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
