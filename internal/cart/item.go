package cart

import (
	"github.com/ikkim/cosmetica-backend/pkg/money"
)

// Item is what a caller hands to AddItem. The store assigns the line id.
type Item struct {
	ProductID string
	Name      string
	Price     money.Amount
	Image     string
	Variant   string // optional, e.g. shade or size
}

// LineItem is one row of the cart
type LineItem struct {
	ID        string       `json:"id"`
	ProductID string       `json:"product_id"`
	Name      string       `json:"name"`
	Price     money.Amount `json:"price"`
	Image     string       `json:"image"`
	Quantity  int          `json:"quantity"`
	Variant   string       `json:"variant,omitempty"`
}

// LineTotal is price × quantity
func (li LineItem) LineTotal() money.Amount {
	return li.Price.Mul(li.Quantity)
}

// matches reports whether an incoming item should merge into this line.
// Variant labels compare exactly; "" only matches "".
func (li LineItem) matches(item Item) bool {
	return li.ProductID == item.ProductID && li.Variant == item.Variant
}

// State is the read-only aggregate handed to readers and listeners
type State struct {
	Items     []LineItem   `json:"items"`
	Subtotal  money.Amount `json:"subtotal"`
	ItemCount int          `json:"item_count"`
}

// Find returns the line with the given id
func (s State) Find(id string) (LineItem, bool) {
	for _, li := range s.Items {
		if li.ID == id {
			return li, true
		}
	}
	return LineItem{}, false
}

// IsEmpty reports whether the cart has no lines
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

func newState(items []LineItem) State {
	st := State{Items: make([]LineItem, len(items))}
	copy(st.Items, items)
	for _, li := range items {
		st.Subtotal += li.LineTotal()
		st.ItemCount += li.Quantity
	}
	return st
}
