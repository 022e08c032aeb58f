// Package arearules narrows deal lists to a named area by heuristic string
// matching. Backend coordinate-radius filtering is coarse for dense city
// areas, so a small rule table maps known area names to address substrings
// that include or exclude a deal, with a business allow-list as the final
// fallback. The table is data, not code: it ships with a default set and can
// be replaced with a YAML file so operators extend coverage without a rebuild.
package arearules

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/dealradar/dealradar/pkg/deal"
)

//go:embed areas.yaml
var defaultRules []byte

// Rule maps one named area to its matching policy. Rules are evaluated in
// table order; the first rule whose area name appears in the query wins.
type Rule struct {
	// Areas are lowercase area names; a rule applies when the normalized
	// query contains any of them.
	Areas []string `yaml:"areas"`
	// IncludeSubstrings keep a deal when its address contains any of them.
	IncludeSubstrings []string `yaml:"include_substrings"`
	// ExcludeSubstrings always drop a deal, disambiguating overlapping
	// area names.
	ExcludeSubstrings []string `yaml:"exclude_substrings"`
	// FallbackBusinesses is the curated allow-list of businesses known to
	// operate in the area, used when no address rule matched anything.
	FallbackBusinesses []string `yaml:"fallback_businesses"`
}

// Table is an ordered set of area rules.
type Table struct {
	Rules []Rule `yaml:"rules"`
}

// Load reads a rule table from YAML.
func Load(r io.Reader) (*Table, error) {
	var t Table
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode area rules: %w", err)
	}

	for i := range t.Rules {
		t.Rules[i].normalize()
	}

	return &t, nil
}

// LoadFile reads a rule table from a YAML file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open area rules file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	return Load(f)
}

// Default returns the built-in rule table.
func Default() *Table {
	t, err := Load(bytes.NewReader(defaultRules))
	if err != nil {
		// The embedded table is validated by tests; a decode failure here
		// is a build defect.
		panic(fmt.Sprintf("arearules: embedded table invalid: %v", err))
	}
	return t
}

// Filter narrows deals to those relevant to the named location. An empty or
// unrecognized location name leaves the list unchanged. For a recognized area
// the layered policy applies: address include/exclude substrings first, then a
// looser prefix of the include substrings, then the business allow-list. When
// every layer misses the result is empty, which the caller shows as "no deals
// found" rather than an error.
func (t *Table) Filter(locationName string, deals []deal.Deal) []deal.Deal {
	rule := t.match(locationName)
	if rule == nil {
		return deals
	}

	if kept := rule.byAddress(deals, false); len(kept) > 0 {
		return kept
	}

	if kept := rule.byAddress(deals, true); len(kept) > 0 {
		return kept
	}

	return rule.byBusiness(deals)
}

// match finds the first rule whose area name appears in the query.
func (t *Table) match(locationName string) *Rule {
	name := strings.ToLower(strings.TrimSpace(locationName))
	if name == "" {
		return nil
	}

	for i := range t.Rules {
		for _, area := range t.Rules[i].Areas {
			if strings.Contains(name, area) {
				return &t.Rules[i]
			}
		}
	}

	return nil
}

// byAddress keeps deals whose address contains an include substring (or, in
// loose mode, its leading word) and none of the exclude substrings.
func (r *Rule) byAddress(deals []deal.Deal, loose bool) []deal.Deal {
	var kept []deal.Deal

	for _, d := range deals {
		address := strings.ToLower(d.Location.Address)

		if r.excluded(address) {
			continue
		}

		for _, substr := range r.IncludeSubstrings {
			if loose {
				substr = loosePrefix(substr)
			}
			if substr != "" && strings.Contains(address, substr) {
				kept = append(kept, d)
				break
			}
		}
	}

	return kept
}

// byBusiness keeps deals whose business name is on the area's allow-list.
func (r *Rule) byBusiness(deals []deal.Deal) []deal.Deal {
	var kept []deal.Deal

	for _, d := range deals {
		business := strings.ToLower(d.BusinessName)
		for _, allowed := range r.FallbackBusinesses {
			if business == allowed {
				kept = append(kept, d)
				break
			}
		}
	}

	return kept
}

func (r *Rule) excluded(address string) bool {
	for _, substr := range r.ExcludeSubstrings {
		if strings.Contains(address, substr) {
			return true
		}
	}
	return false
}

// loosePrefix shortens an include substring to its leading word, so
// "jayanagar 2nd block" still matches addresses written as "Jayanagar".
func loosePrefix(substr string) string {
	if i := strings.IndexByte(substr, ' '); i > 0 {
		return substr[:i]
	}
	return substr
}

// normalize lowercases all rule strings once at load time.
func (r *Rule) normalize() {
	lower := func(items []string) {
		for i, s := range items {
			items[i] = strings.ToLower(strings.TrimSpace(s))
		}
	}
	lower(r.Areas)
	lower(r.IncludeSubstrings)
	lower(r.ExcludeSubstrings)
	lower(r.FallbackBusinesses)
}
