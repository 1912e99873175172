package repository

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-pos/internal/model"
)

// SeedDemo loads the demo floor plan, menu and stock.  Inventory expiry
// dates are placed relative to now so every alert level shows up.
func SeedDemo(tables *TableRepo, menu *MenuRepo, inventory *InventoryRepo, now time.Time) error {
	for _, capacity := range []int{4, 2, 6, 4, 8, 2} {
		if _, err := tables.Create(model.Table{Capacity: capacity, State: model.TableAvailable}); err != nil {
			return err
		}
	}

	dishes := []model.MenuItem{
		{ID: 1, Name: "Hamburguesa Clásica", Price: decimal.RequireFromString("12.50"), Category: model.CategoryFood, Active: true},
		{ID: 2, Name: "Pizza Margherita", Price: decimal.RequireFromString("18.00"), Category: model.CategoryFood, Active: true},
		{ID: 3, Name: "Ensalada César", Price: decimal.RequireFromString("8.50"), Category: model.CategoryFood, Active: true},
		{ID: 4, Name: "Coca Cola", Price: decimal.RequireFromString("3.00"), Category: model.CategoryDrink, Active: true},
		{ID: 5, Name: "Tiramisu", Price: decimal.RequireFromString("6.50"), Category: model.CategoryDessert, Active: true},
		{ID: 6, Name: "Pasta Carbonara", Price: decimal.RequireFromString("15.00"), Category: model.CategoryFood, Active: true},
	}
	for _, d := range dishes {
		if _, err := menu.Create(d); err != nil {
			return err
		}
	}

	day := func(n int) *time.Time {
		t := now.AddDate(0, 0, n)
		return &t
	}
	stock := []model.InventoryItem{
		{ID: 1, Name: "Carne de Res", Quantity: decimal.NewFromInt(15), Unit: "kg", ExpiresOn: day(5), Category: model.InventoryMeat, PurchasePrice: decimal.RequireFromString("8.50")},
		{ID: 2, Name: "Tomates", Quantity: decimal.NewFromInt(3), Unit: "kg", ExpiresOn: day(10), Category: model.InventoryVegetables, PurchasePrice: decimal.RequireFromString("2.50")},
		{ID: 3, Name: "Queso Mozzarella", Quantity: decimal.NewFromInt(8), Unit: "kg", ExpiresOn: day(2), Category: model.InventoryDairy, PurchasePrice: decimal.RequireFromString("12.00")},
		{ID: 4, Name: "Leche", Quantity: decimal.NewFromInt(2), Unit: "litros", ExpiresOn: day(-1), Category: model.InventoryDairy, PurchasePrice: decimal.RequireFromString("1.80")},
		{ID: 5, Name: "Sal", Quantity: decimal.NewFromInt(10), Unit: "kg", Category: model.InventoryCondiments, PurchasePrice: decimal.RequireFromString("1.20")},
	}
	for _, s := range stock {
		if _, err := inventory.Create(s); err != nil {
			return err
		}
	}
	return nil
}
