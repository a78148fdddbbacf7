package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog record. Price is the authoritative current price;
// carts snapshot it at add time and never read it back for totals.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	CreatedAt   time.Time       `json:"created_at"`
}
