package service

import "strings"

// ItemAllergens is the allergen view of one plan item under check.
type ItemAllergens struct {
	Name      string
	Allergens []string
}

// ItemConflict lists the declared allergens one item contains.
type ItemConflict struct {
	Index     int      `json:"index"`
	Item      string   `json:"item"`
	Allergens []string `json:"allergens"`
}

// ConflictReport is empty when no item conflicts.
type ConflictReport []ItemConflict

// CheckAllergens intersects every item's allergen tags with the declared
// allergies. Matching ignores case and surrounding whitespace. Conflicting
// allergens are reported in the item's own spelling, once each.
func CheckAllergens(declared []string, items []ItemAllergens) ConflictReport {
	avoid := make(map[string]struct{}, len(declared))
	for _, a := range declared {
		if key := normalizeAllergen(a); key != "" {
			avoid[key] = struct{}{}
		}
	}
	if len(avoid) == 0 {
		return nil
	}

	var report ConflictReport
	for i, item := range items {
		seen := map[string]struct{}{}
		var hits []string
		for _, tag := range item.Allergens {
			key := normalizeAllergen(tag)
			if _, bad := avoid[key]; !bad {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			hits = append(hits, strings.TrimSpace(tag))
		}
		if len(hits) > 0 {
			report = append(report, ItemConflict{Index: i, Item: item.Name, Allergens: hits})
		}
	}
	return report
}

func normalizeAllergen(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// unionAllergens merges two tag lists, dropping case-insensitive duplicates.
func unionAllergens(a, b []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			key := normalizeAllergen(tag)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, strings.TrimSpace(tag))
		}
	}
	return out
}
