package deal

import (
	"fmt"
	"time"
)

// Category classifies a deal by the kind of business offering it.
type Category string

const (
	CategoryAll        Category = "all"
	CategoryRetail     Category = "retail"
	CategoryRestaurant Category = "restaurant"
	CategoryOther      Category = "other"
)

// Coordinate is a resolved latitude/longitude pair. A coordinate is either
// fully present or absent; callers pass *Coordinate and nil means unresolved.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a deal's postal address plus its coordinates.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Deal is a discounted-offer record. Deals are immutable snapshots; the
// service assigns the ID on insert and clients never mutate them.
type Deal struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	DiscountPercentage float64    `json:"discount_percentage"`
	OriginalPrice      *float64   `json:"original_price,omitempty"`
	SalePrice          *float64   `json:"sale_price,omitempty"`
	BusinessName       string     `json:"business_name"`
	Category           Category   `json:"category"`
	Location           Location   `json:"location"`
	ExpirationDate     *time.Time `json:"expiration_date,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	URL                string     `json:"url,omitempty"`
	Distance           *float64   `json:"distance,omitempty"` // miles from the query point, set by the server
	CreatedAt          time.Time  `json:"created_at"`
}

// Option sets the UI exposes. Free-form radius or discount values never reach
// the query layer.
var (
	AllowedRadiiMiles   = []float64{1, 3, 5, 10, 25}
	AllowedMinDiscounts = []float64{15, 25, 50, 75}
)

// FilterCriteria is the enumerated filter set for a deals query.
type FilterCriteria struct {
	Category    Category
	RadiusMiles float64
	MinDiscount float64
	Currency    string // ISO 4217 display currency
}

// DefaultCriteria mirrors the defaults the UI starts with.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		Category:    CategoryAll,
		RadiusMiles: 5,
		MinDiscount: 15,
		Currency:    "USD",
	}
}

// Validate rejects criteria outside the enumerated option sets. This is the
// client-side check: the UI only offers these values, so nothing else should
// leave a client.
func (c FilterCriteria) Validate() error {
	if err := c.validCategory(); err != nil {
		return err
	}

	if !containsFloat(AllowedRadiiMiles, c.RadiusMiles) {
		return fmt.Errorf("invalid radius %.0f miles, allowed: %v", c.RadiusMiles, AllowedRadiiMiles)
	}

	if !containsFloat(AllowedMinDiscounts, c.MinDiscount) {
		return fmt.Errorf("invalid minimum discount %.0f%%, allowed: %v", c.MinDiscount, AllowedMinDiscounts)
	}

	return nil
}

// ValidateBounds is the server-side check: any caller-supplied numerics are
// accepted as long as they are sane, so clients other than this SDK can query
// with values outside the UI's option sets.
func (c FilterCriteria) ValidateBounds() error {
	if err := c.validCategory(); err != nil {
		return err
	}

	if c.RadiusMiles <= 0 {
		return fmt.Errorf("radius must be positive, got %v", c.RadiusMiles)
	}

	if c.MinDiscount < 0 || c.MinDiscount > 100 {
		return fmt.Errorf("minimum discount must be between 0 and 100, got %v", c.MinDiscount)
	}

	return nil
}

func (c FilterCriteria) validCategory() error {
	switch c.Category {
	case CategoryAll, CategoryRetail, CategoryRestaurant, CategoryOther:
		return nil
	default:
		return fmt.Errorf("invalid category %q", c.Category)
	}
}

// Dedupe removes repeated deal IDs from a list. For a repeated ID the last
// occurrence in input order wins; relative order of first appearance is kept.
func Dedupe(deals []Deal) []Deal {
	if len(deals) == 0 {
		return deals
	}

	index := make(map[string]int, len(deals))
	unique := make([]Deal, 0, len(deals))

	for _, d := range deals {
		if at, seen := index[d.ID]; seen {
			unique[at] = d
			continue
		}
		index[d.ID] = len(unique)
		unique = append(unique, d)
	}

	return unique
}

func containsFloat(set []float64, v float64) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
