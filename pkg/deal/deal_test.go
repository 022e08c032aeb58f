package deal

import (
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		criteria FilterCriteria
		wantErr  bool
	}{
		{name: "defaults", criteria: DefaultCriteria(), wantErr: false},
		{name: "retail wide radius", criteria: FilterCriteria{Category: CategoryRetail, RadiusMiles: 25, MinDiscount: 75}, wantErr: false},
		{name: "other category", criteria: FilterCriteria{Category: CategoryOther, RadiusMiles: 1, MinDiscount: 15}, wantErr: false},
		{name: "unknown category", criteria: FilterCriteria{Category: "groceries", RadiusMiles: 5, MinDiscount: 15}, wantErr: true},
		{name: "free-form radius", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: 7, MinDiscount: 15}, wantErr: true},
		{name: "free-form discount", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: 5, MinDiscount: 20}, wantErr: true},
		{name: "zero values", criteria: FilterCriteria{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criteria.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name     string
		criteria FilterCriteria
		wantErr  bool
	}{
		{name: "defaults", criteria: DefaultCriteria(), wantErr: false},
		{name: "off-menu discount", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: 5, MinDiscount: 30}, wantErr: false},
		{name: "off-menu radius", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: 7, MinDiscount: 15}, wantErr: false},
		{name: "zero discount", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: 5, MinDiscount: 0}, wantErr: false},
		{name: "discount over 100", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: 5, MinDiscount: 150}, wantErr: true},
		{name: "negative discount", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: 5, MinDiscount: -5}, wantErr: true},
		{name: "zero radius", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: 0, MinDiscount: 15}, wantErr: true},
		{name: "negative radius", criteria: FilterCriteria{Category: CategoryAll, RadiusMiles: -2, MinDiscount: 15}, wantErr: true},
		{name: "unknown category", criteria: FilterCriteria{Category: "groceries", RadiusMiles: 5, MinDiscount: 15}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.criteria.ValidateBounds()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBounds() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDedupeLastOccurrenceWins(t *testing.T) {
	deals := []Deal{
		{ID: "a", Title: "stale a"},
		{ID: "b", Title: "only b"},
		{ID: "a", Title: "fresh a"},
	}

	got := Dedupe(deals)

	if len(got) != 2 {
		t.Fatalf("expected 2 deals after dedupe, got %d", len(got))
	}
	if got[0].ID != "a" || got[0].Title != "fresh a" {
		t.Errorf("expected the later duplicate to win in place, got %+v", got[0])
	}
	if got[1].ID != "b" {
		t.Errorf("expected first-appearance order to be kept, got %+v", got[1])
	}
}

func TestDedupeNoDuplicates(t *testing.T) {
	deals := []Deal{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	got := Dedupe(deals)

	if len(got) != 3 {
		t.Fatalf("expected all 3 deals to survive, got %d", len(got))
	}
	for i, d := range deals {
		if got[i].ID != d.ID {
			t.Errorf("order changed at %d: want %q, got %q", i, d.ID, got[i].ID)
		}
	}
}

func TestDedupeEmpty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("expected empty result for nil input, got %v", got)
	}
	if got := Dedupe([]Deal{}); len(got) != 0 {
		t.Errorf("expected empty result for empty input, got %v", got)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	deals := []Deal{
		{ID: "a", Title: "first"},
		{ID: "a", Title: "second"},
		{ID: "b"},
	}

	once := Dedupe(deals)
	twice := Dedupe(once)

	if len(once) != len(twice) {
		t.Fatalf("dedupe changed length on second pass: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID || once[i].Title != twice[i].Title {
			t.Errorf("second dedupe changed element %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}
