package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Item is a cart line. Discount is the amount written by policy
// application and read back when the priced cart is assembled.
type Item struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
}

// Total returns UnitPrice * Quantity.
func (i Item) Total() decimal.Decimal {
	return LineTotal(i.UnitPrice, i.Quantity)
}

// Cart is an ordered list of line items. Items sharing a product id are
// kept as separate lines.
type Cart struct {
	Items []Item
}

// Total returns the undiscounted, unrounded cart value.
func (c Cart) Total() decimal.Decimal {
	sum := zero
	for _, item := range c.Items {
		sum = sum.Add(item.Total())
	}
	return sum
}

// Quantity returns the summed quantity of all lines for productID.
func (c Cart) Quantity(productID int64) int {
	qty := 0
	for _, item := range c.Items {
		if item.ProductID == productID {
			qty += item.Quantity
		}
	}
	return qty
}

// Clone returns a copy of the cart that shares no item storage with c.
func (c Cart) Clone() Cart {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// Validate rejects negative quantities, prices and discounts.
func (c Cart) Validate() error {
	for i, item := range c.Items {
		switch {
		case item.Quantity < 0:
			return errors.Wrapf(ErrInvalidCart, "item %d: negative quantity", i)
		case item.UnitPrice.IsNegative():
			return errors.Wrapf(ErrInvalidCart, "item %d: negative price", i)
		case item.Discount.IsNegative():
			return errors.Wrapf(ErrInvalidCart, "item %d: negative discount", i)
		}
	}
	return nil
}
