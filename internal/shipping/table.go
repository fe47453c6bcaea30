// Package shipping maps destination regions to shipping cost tiers.
package shipping

import (
	"strings"
	"unicode"

	"kart-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// Tier names.
const (
	TierDefault  = "default"
	TierElevated = "elevated"
)

// Tier is the shipping cost band for a region.
type Tier struct {
	Name string
	Cost decimal.Decimal
}

// Elevated reports whether the tier is the elevated band.
func (t Tier) Elevated() bool {
	return t.Name == TierElevated
}

// elevatedRegions lie outside the contiguous states.
var elevatedRegions = []string{"Alaska", "Hawaii"}

var defaultRegions = []string{
	"Alabama", "Arizona", "Arkansas", "California", "Colorado", "Connecticut",
	"Delaware", "District Of Columbia", "Florida", "Georgia", "Idaho", "Illinois",
	"Indiana", "Iowa", "Kansas", "Kentucky", "Louisiana", "Maine", "Maryland",
	"Massachusetts", "Michigan", "Minnesota", "Mississippi", "Missouri", "Montana",
	"Nebraska", "Nevada", "New Hampshire", "New Jersey", "New Mexico", "New York",
	"North Carolina", "North Dakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania",
	"Rhode Island", "South Carolina", "South Dakota", "Tennessee", "Texas", "Utah",
	"Vermont", "Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming",
}

// Table is a static region to tier lookup. It is safe for concurrent use.
type Table struct {
	tiers map[string]Tier
}

// NewTable builds the region table with the given tier costs.
func NewTable(defaultCost, elevatedCost decimal.Decimal) *Table {
	t := &Table{tiers: make(map[string]Tier, len(defaultRegions)+len(elevatedRegions))}
	for _, r := range defaultRegions {
		t.tiers[r] = Tier{Name: TierDefault, Cost: defaultCost}
	}
	for _, r := range elevatedRegions {
		t.tiers[r] = Tier{Name: TierElevated, Cost: elevatedCost}
	}
	return t
}

// Lookup returns the tier for a region name, ignoring case and spacing.
func (t *Table) Lookup(region string) (Tier, error) {
	tier, ok := t.tiers[Normalize(region)]
	if !ok {
		return Tier{}, &model.UnknownRegionError{Region: region}
	}
	return tier, nil
}

// Normalize title-cases each whitespace-separated token and joins them with
// single spaces: "  new   YORK " becomes "New York".
func Normalize(name string) string {
	tokens := strings.Fields(name)
	for i, tok := range tokens {
		r := []rune(strings.ToLower(tok))
		r[0] = unicode.ToUpper(r[0])
		tokens[i] = string(r)
	}
	return strings.Join(tokens, " ")
}
