package models

// TierName identifies one of the three package bundles
type TierName string

const (
	TierEssential     TierName = "Essential"
	TierAdvanced      TierName = "Advanced"
	TierComprehensive TierName = "Comprehensive"
)

// TierOrder is the fixed order tiers are returned in
var TierOrder = []TierName{TierEssential, TierAdvanced, TierComprehensive}

// PackageTest is a catalog entry as rendered inside a package
type PackageTest struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// PackageTier is one bundle offered to the user
type PackageTier struct {
	Tier       TierName      `json:"tier"`
	Name       string        `json:"name"`
	Tests      []PackageTest `json:"tests"`
	Price      int           `json:"price"`       // list price, sum of test prices
	Discount   int           `json:"discount"`
	FinalPrice int           `json:"final_price"` // Price - Discount
}

// Subtotal sums the unit prices of the tier's tests
func (t PackageTier) Subtotal() int {
	total := 0
	for _, test := range t.Tests {
		total += test.Price
	}
	return total
}

// HasTest reports whether the tier contains the given code
func (t PackageTier) HasTest(code string) bool {
	for _, test := range t.Tests {
		if test.Code == code {
			return true
		}
	}
	return false
}
