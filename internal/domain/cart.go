package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CartItem is one stored cart line. Price is the unit price captured when
// the product was first added, kept as a string so it survives JSON round
// trips without floating point drift.
type CartItem struct {
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// UnitPrice parses the stored price snapshot. A parse failure means the
// stored session data is corrupt.
func (i CartItem) UnitPrice() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(i.Price)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed stored price %q: %w", i.Price, err)
	}
	return d, nil
}

// CartItems is the persisted cart shape: product id (decimal string form of
// the catalog id) -> line item.
type CartItems map[string]CartItem
