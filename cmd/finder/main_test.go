package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dealradar/dealradar/pkg/deal"
)

func TestPrintDeals(t *testing.T) {
	original := 3000.0
	sale := 1500.0
	distance := 2.71
	expires := time.Date(2026, time.May, 25, 0, 0, 0, 0, time.UTC)

	deals := []deal.Deal{
		{
			Title:              "Denim Fest: Up to 50% Off",
			BusinessName:       "Levi's Store Jayanagar",
			DiscountPercentage: 50,
			OriginalPrice:      &original,
			SalePrice:          &sale,
			Location:           deal.Location{Address: "21 Jayanagar 4th Block, Bengaluru"},
			Distance:           &distance,
			ExpirationDate:     &expires,
		},
		{
			Title:              "25% Off Everything",
			BusinessName:       "Zudio Jayanagar",
			DiscountPercentage: 25,
			Location:           deal.Location{Address: "5 Jayanagar 2nd Block, Bengaluru"},
		},
	}

	var buf bytes.Buffer
	printDeals(&buf, deals)
	out := buf.String()

	for _, want := range []string{
		"Found 2 deal(s):",
		"[1] Denim Fest: Up to 50% Off at Levi's Store Jayanagar",
		"50% off  ($3000.00 -> $1500.00)",
		"2.71 miles away",
		"Expires: 2026-05-25",
		"[2] 25% Off Everything at Zudio Jayanagar",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\noutput:\n%s", want, out)
		}
	}

	// The second deal has no prices, so no price annotation may appear for it.
	if strings.Count(out, "$") != 2 {
		t.Errorf("expected exactly one price pair, output:\n%s", out)
	}
}
