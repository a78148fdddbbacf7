// Package cart implements the session-backed shopping cart. A Cart is a
// cheap per-request handle over the session's cart mapping; the session
// store persists the mapping at request end once the cart has marked the
// session modified.
package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/eshop/cart-service/internal/catalog"
	"github.com/eshop/cart-service/internal/domain"
	"github.com/eshop/cart-service/internal/session"
)

// SessionKey is the session value the serialized cart mapping lives under.
const SessionKey = "cart"

// ProductFinder is the batch catalog lookup cart enrichment depends on
// Consumers define this interface, not the sqlite implementation
type ProductFinder interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]*catalog.Product, error)
}

// Cart is bound to one request's session. Not safe for concurrent use;
// construct one per request and discard it afterwards.
type Cart struct {
	sess  *session.Session
	items domain.CartItems
}

// New binds a cart to the request's session, starting from an empty mapping
// when the session has none yet. Corrupt stored cart data is surfaced, not
// silently replaced.
func New(sess *session.Session) (*Cart, error) {
	items := domain.CartItems{}
	if _, err := sess.Get(SessionKey, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = domain.CartItems{}
	}

	return &Cart{sess: sess, items: items}, nil
}

// Add puts quantity units of the product into the cart. The unit price is
// snapshotted the first time a product id is added and is never refreshed by
// later calls, so the shopper keeps the price they saw. When override is
// true the quantity replaces the stored one instead of merging into it.
// Quantities are not validated here; callers wanting removal use Remove.
func (c *Cart) Add(p *catalog.Product, quantity int, override bool) error {
	id := strconv.FormatInt(p.ID, 10)

	item, ok := c.items[id]
	if !ok {
		item = domain.CartItem{Quantity: 0, Price: p.Price.String()}
	}

	if override {
		item.Quantity = quantity
	} else {
		item.Quantity += quantity
	}
	c.items[id] = item

	return c.save()
}

// Remove deletes the product's line item. Removing an absent id is a no-op
// and does not touch the session.
func (c *Cart) Remove(productID int64) error {
	id := strconv.FormatInt(productID, 10)
	if _, ok := c.items[id]; !ok {
		return nil
	}

	delete(c.items, id)
	return c.save()
}

// Clear deletes the whole cart mapping from the session, not just its
// entries. Clearing an absent cart is a no-op.
func (c *Cart) Clear() {
	if !c.sess.Has(SessionKey) {
		return
	}

	c.sess.Delete(SessionKey)
	c.items = domain.CartItems{}
	c.sess.MarkModified()
}

// TotalPrice sums price × quantity over all line items with exact decimal
// arithmetic. A malformed stored price means corrupted session data and is
// returned as an error rather than masked with a zero.
func (c *Cart) TotalPrice() (decimal.Decimal, error) {
	total := decimal.Zero
	for id, item := range c.items {
		price, err := item.UnitPrice()
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("cart line %s: %w", id, err)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return total, nil
}

// Len reports the total number of units across all lines, not the number of
// distinct products.
func (c *Cart) Len() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// LineItem is a cart line enriched with its current catalog record. Price is
// the add-time snapshot; Product reflects the catalog as of the Items call.
type LineItem struct {
	Product    *catalog.Product
	Quantity   int
	Price      decimal.Decimal
	TotalPrice decimal.Decimal
}

// Items resolves the cart against the catalog in a single batch lookup and
// returns one enriched line per item whose product still exists. Lines whose
// product has since disappeared are omitted but stay in the mapping until
// the shopper removes them. Each call recomputes from current catalog state.
func (c *Cart) Items(ctx context.Context, finder ProductFinder) ([]LineItem, error) {
	ids := make([]int64, 0, len(c.items))
	for key := range c.items {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue // key can never match a catalog id, treat as stale
		}
		ids = append(ids, id)
	}

	products, err := finder.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	lookup := make(map[string]*catalog.Product, len(products))
	for _, p := range products {
		lookup[strconv.FormatInt(p.ID, 10)] = p
	}

	out := make([]LineItem, 0, len(c.items))
	for key, item := range c.items {
		p, ok := lookup[key]
		if !ok {
			continue
		}

		price, err := item.UnitPrice()
		if err != nil {
			return nil, fmt.Errorf("cart line %s: %w", key, err)
		}

		out = append(out, LineItem{
			Product:    p,
			Quantity:   item.Quantity,
			Price:      price,
			TotalPrice: price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })

	return out, nil
}

// save writes the mapping back to the session and marks it for persistence.
func (c *Cart) save() error {
	if err := c.sess.Set(SessionKey, c.items); err != nil {
		return err
	}
	c.sess.MarkModified()
	return nil
}
