package deals

import (
	"math"
	"testing"

	"github.com/dealradar/dealradar/pkg/deal"
)

// Reference points in central Bengaluru, roughly 2.7 miles apart.
var (
	brigadeRoad = deal.Coordinate{Lat: 12.9716, Lng: 77.6070}
	jayanagar   = deal.Coordinate{Lat: 12.9308, Lng: 77.5838}
)

func dealAt(id string, c deal.Coordinate) deal.Deal {
	return deal.Deal{
		ID:       id,
		Location: deal.Location{Lat: c.Lat, Lng: c.Lng},
	}
}

func TestHaversineMiles(t *testing.T) {
	if d := haversineMiles(brigadeRoad, brigadeRoad); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}

	d := haversineMiles(brigadeRoad, jayanagar)
	if d < 2 || d > 4 {
		t.Errorf("Brigade Road to Jayanagar = %v miles, expected roughly 3", d)
	}

	if ba := haversineMiles(jayanagar, brigadeRoad); math.Abs(d-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d, ba)
	}
}

func TestWithinRadius(t *testing.T) {
	deals := []deal.Deal{
		dealAt("near", deal.Coordinate{Lat: 12.9720, Lng: 77.6075}),
		dealAt("mid", jayanagar),
		dealAt("far", deal.Coordinate{Lat: 13.1986, Lng: 77.7066}), // airport, ~20 miles out
	}

	kept := withinRadius(deals, brigadeRoad, 5)

	if len(kept) != 2 {
		t.Fatalf("kept %d deals, want 2", len(kept))
	}
	if kept[0].ID != "near" || kept[1].ID != "mid" {
		t.Errorf("order = %q, %q; want near, mid", kept[0].ID, kept[1].ID)
	}
	for _, d := range kept {
		if d.Distance == nil {
			t.Errorf("deal %q missing distance annotation", d.ID)
			continue
		}
		if *d.Distance > 5 {
			t.Errorf("deal %q distance %v exceeds radius", d.ID, *d.Distance)
		}
		// Distances are rounded to two decimals for display.
		if math.Round(*d.Distance*100)/100 != *d.Distance {
			t.Errorf("deal %q distance %v not rounded", d.ID, *d.Distance)
		}
	}
}

func TestWithinRadiusTightRadius(t *testing.T) {
	deals := []deal.Deal{
		dealAt("near", deal.Coordinate{Lat: 12.9720, Lng: 77.6075}),
		dealAt("mid", jayanagar),
	}

	kept := withinRadius(deals, brigadeRoad, 1)

	if len(kept) != 1 || kept[0].ID != "near" {
		t.Errorf("kept = %+v, want only the near deal", kept)
	}
}

func TestWithinRadiusEmpty(t *testing.T) {
	if kept := withinRadius(nil, brigadeRoad, 5); len(kept) != 0 {
		t.Errorf("kept = %v, want empty", kept)
	}
}
