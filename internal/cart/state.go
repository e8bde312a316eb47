package cart

import (
	"github.com/google/uuid"
)

// Item is one product line in the cart. UnitPrice is whole rupees.
type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	Image     string    `json:"image,omitempty"`
	UnitPrice int       `json:"unit_price"`
	Stock     int       `json:"stock"`
	Quantity  int       `json:"quantity"`
}

// State is the authoritative cart for one user. Items keep insertion order;
// Total and ItemCount are always derived from Items, never set directly.
// DrawerOpen is UI-only state and is not persisted.
type State struct {
	Items      []Item `json:"items"`
	Total      int    `json:"total"`
	ItemCount  int    `json:"item_count"`
	DrawerOpen bool   `json:"drawer_open"`
}

// ProductSnapshot is the validated product payload entering the cart core.
type ProductSnapshot struct {
	ID        uuid.UUID
	SKU       string
	Name      string
	Image     string
	UnitPrice int
	Stock     int
}

func emptyState() *State {
	return &State{Items: []Item{}}
}

// recompute rederives Total and ItemCount from the item list.
func (s *State) recompute() {
	total, count := 0, 0
	for _, item := range s.Items {
		total += item.UnitPrice * item.Quantity
		count += item.Quantity
	}
	s.Total = total
	s.ItemCount = count
}

func (s *State) find(productID uuid.UUID) int {
	for i, item := range s.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// addItem inserts a new line or increments an existing one, capping the
// resulting quantity at the product's stock. Returns false when the requested
// quantity alone already exceeds stock, in which case the state is unchanged.
func (s *State) addItem(product ProductSnapshot, qty int) bool {
	if qty <= 0 {
		qty = 1
	}
	if qty > product.Stock {
		return false
	}

	if i := s.find(product.ID); i >= 0 {
		next := s.Items[i].Quantity + qty
		if next > s.Items[i].Stock {
			next = s.Items[i].Stock
		}
		s.Items[i].Quantity = next
	} else {
		s.Items = append(s.Items, Item{
			ProductID: product.ID,
			SKU:       product.SKU,
			Name:      product.Name,
			Image:     product.Image,
			UnitPrice: product.UnitPrice,
			Stock:     product.Stock,
			Quantity:  qty,
		})
	}
	s.recompute()
	return true
}

// updateQuantity sets an item's quantity, clamped to its stock ceiling.
// A quantity of zero or less removes the line. Returns false when the
// product is not in the cart.
func (s *State) updateQuantity(productID uuid.UUID, qty int) bool {
	i := s.find(productID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
	} else {
		if qty > s.Items[i].Stock {
			qty = s.Items[i].Stock
		}
		s.Items[i].Quantity = qty
	}
	s.recompute()
	return true
}

// removeItem deletes the line if present. Absent products are a no-op.
func (s *State) removeItem(productID uuid.UUID) bool {
	i := s.find(productID)
	if i < 0 {
		return false
	}
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	s.recompute()
	return true
}

// clear empties the cart.
func (s *State) clear() {
	s.Items = []Item{}
	s.recompute()
}
