package enums

import "fmt"

// ProductSort selects the ordering of public catalog listings.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceAsc  ProductSort = "price-asc"
	ProductSortPriceDesc ProductSort = "price-desc"
	ProductSortName      ProductSort = "name"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortName,
}

// IsValid reports whether the value is a known ProductSort.
func (s ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == s {
			return true
		}
	}
	return false
}

// OrderClause returns the SQL ORDER BY expression for the sort.
func (s ProductSort) OrderClause() string {
	switch s {
	case ProductSortPriceAsc:
		return "price ASC, id ASC"
	case ProductSortPriceDesc:
		return "price DESC, id ASC"
	case ProductSortName:
		return "name ASC, id ASC"
	default:
		return "created_at DESC, id DESC"
	}
}

// ParseProductSort converts raw input into a ProductSort. Empty input means newest.
func ParseProductSort(value string) (ProductSort, error) {
	if value == "" {
		return ProductSortNewest, nil
	}
	for _, candidate := range validProductSorts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort %q", value)
}
