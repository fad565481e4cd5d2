package cart

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PersistedItem is the stored form of a line item.
type PersistedItem struct {
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Name     string `json:"name"`
	Image    string `json:"image"`
	Position int    `json:"position"`
}

// Persisted maps line item ids to their stored form plus the visibility flag.
type Persisted struct {
	Items  map[string]PersistedItem `json:"items"`
	IsOpen bool                     `json:"is_open"`
}

// ToPersisted converts the cart into its storage mapping.
func (s *Store) ToPersisted() Persisted {
	out := Persisted{
		Items:  make(map[string]PersistedItem, len(s.items)),
		IsOpen: s.isOpen,
	}
	for i, item := range s.items {
		out.Items[item.ID] = PersistedItem{
			Quantity: item.Quantity,
			Price:    item.Price.String(),
			Name:     item.Name,
			Image:    item.Image,
			Position: i,
		}
	}
	return out
}

// Restore rebuilds a cart from its storage mapping. Entries with an empty id,
// a quantity below 1 or a price that is unparseable or negative are dropped,
// as are entries that would push the item count past math.MaxInt.
func Restore(p Persisted) *Store {
	type positioned struct {
		item     LineItem
		position int
	}
	rows := make([]positioned, 0, len(p.Items))
	for id, stored := range p.Items {
		if strings.TrimSpace(id) == "" || stored.Quantity < 1 {
			continue
		}
		price, err := decimal.NewFromString(strings.TrimSpace(stored.Price))
		if err != nil || price.IsNegative() {
			continue
		}
		rows = append(rows, positioned{
			item: LineItem{
				ID:       id,
				Name:     stored.Name,
				Price:    price,
				Image:    stored.Image,
				Quantity: stored.Quantity,
			},
			position: stored.Position,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].position != rows[j].position {
			return rows[i].position < rows[j].position
		}
		return rows[i].item.ID < rows[j].item.ID
	})

	store := &Store{isOpen: p.IsOpen, items: make([]LineItem, 0, len(rows))}
	for _, row := range rows {
		if !store.CanSetQuantity(row.item.ID, row.item.Quantity) {
			continue
		}
		store.items = append(store.items, row.item)
	}
	return store
}
