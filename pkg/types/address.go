package types

import "strings"

// Address is the shipping address snapshot embedded into carts and orders.
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Complete reports whether the address carries every field required to ship.
func (a Address) Complete() bool {
	for _, field := range []string{a.Name, a.Phone, a.Line1, a.City, a.State, a.PostalCode} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
