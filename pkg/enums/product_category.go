package enums

// ProductCategory buckets catalog listings for browsing filters.
type ProductCategory string

const (
	CategoryElectronics ProductCategory = "electronics"
	CategoryFashion     ProductCategory = "fashion"
	CategoryHome        ProductCategory = "home"
	CategoryBeauty      ProductCategory = "beauty"
	CategoryToys        ProductCategory = "toys"
	CategoryGadgets     ProductCategory = "gadgets"
	CategoryOther       ProductCategory = "other"
)

func (c ProductCategory) IsValid() bool {
	switch c {
	case CategoryElectronics, CategoryFashion, CategoryHome, CategoryBeauty, CategoryToys, CategoryGadgets, CategoryOther:
		return true
	}
	return false
}
