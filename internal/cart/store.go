package cart

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one distinct product in the cart. Name, price and image are
// snapshotted when the product is first added.
type LineItem struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Image    string
	Quantity int
}

// Subtotal returns price times quantity at full precision.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Candidate is a line item before it has a quantity.
type Candidate struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image string
}

func (c Candidate) valid() bool {
	return strings.TrimSpace(c.ID) != "" && !c.Price.IsNegative()
}

// Snapshot is a consistent read of the cart at one point in time.
type Snapshot struct {
	Items      []LineItem
	TotalItems int
	TotalPrice decimal.Decimal
	IsOpen     bool
}

// Summary feeds the navigation badge.
type Summary struct {
	TotalItems int
}

// Store holds a single session's line items and visibility flag. It is not
// safe for concurrent use; callers serialize access.
type Store struct {
	items  []LineItem
	isOpen bool
}

// NewStore returns an empty, closed cart.
func NewStore() *Store {
	return &Store{}
}

// AddItem increments the quantity of an existing line or appends a new one
// with quantity 1. The first-seen name, price and image are kept. It returns
// false without changing anything for a candidate with an empty id, a
// negative price, or when the cart already holds math.MaxInt items.
func (s *Store) AddItem(c Candidate) bool {
	if !c.valid() || !s.CanAdd() {
		return false
	}
	if idx := s.indexOf(c.ID); idx >= 0 {
		s.items[idx].Quantity++
		return true
	}
	s.items = append(s.items, LineItem{
		ID:       c.ID,
		Name:     c.Name,
		Price:    c.Price,
		Image:    c.Image,
		Quantity: 1,
	})
	return true
}

// RemoveItem deletes the line with the given id. It reports whether a line was removed.
func (s *Store) RemoveItem(id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	return true
}

// UpdateQuantity sets the absolute quantity of an existing line. Zero or a
// negative quantity removes the line. Unknown ids are ignored, as is a
// quantity that would push TotalItems past math.MaxInt.
func (s *Store) UpdateQuantity(id string, quantity int) bool {
	if quantity <= 0 {
		return s.RemoveItem(id)
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	if s.items[idx].Quantity == quantity || !s.CanSetQuantity(id, quantity) {
		return false
	}
	s.items[idx].Quantity = quantity
	return true
}

// SetIsCartOpen records whether the cart panel is shown.
func (s *Store) SetIsCartOpen(open bool) bool {
	changed := s.isOpen != open
	s.isOpen = open
	return changed
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// CanAdd reports whether one more unit fits without TotalItems overflowing.
func (s *Store) CanAdd() bool {
	return s.TotalItems() < math.MaxInt
}

// CanSetQuantity reports whether line id can hold quantity without
// TotalItems overflowing. Unknown ids count as a new line.
func (s *Store) CanSetQuantity(id string, quantity int) bool {
	others := s.TotalItems()
	if idx := s.indexOf(id); idx >= 0 {
		others -= s.items[idx].Quantity
	}
	return quantity <= math.MaxInt-others
}

// TotalItems is the sum of all quantities, saturating at math.MaxInt.
func (s *Store) TotalItems() int {
	total := 0
	for _, item := range s.items {
		total = addSaturating(total, item.Quantity)
	}
	return total
}

// TotalPrice is the exact sum of every line subtotal.
func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// IsCartOpen reports whether the cart panel is shown.
func (s *Store) IsCartOpen() bool {
	return s.isOpen
}

// Snapshot captures items and derived totals together.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Items:      s.Items(),
		TotalItems: s.TotalItems(),
		TotalPrice: s.TotalPrice(),
		IsOpen:     s.isOpen,
	}
}

func (s *Store) clone() *Store {
	return &Store{items: s.Items(), isOpen: s.isOpen}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func addSaturating(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}
