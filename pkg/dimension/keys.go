package dimension

import (
	"sort"

	"github.com/retail-dw/conformance/pkg/model"
)

// Surrogate keys are assigned by enumerating distinct natural keys in an
// explicit sorted order. The dimensional layer is recomputed on every
// read, so the enumeration must not depend on map iteration order: two
// reads against the same snapshot yield identical keys.

// customerSurrogates assigns sequential surrogate keys to customers in
// ascending numeric id order
func customerSurrogates(customers []model.Customer) map[int]int {
	ids := make([]int, 0, len(customers))
	seen := make(map[int]bool, len(customers))
	for _, c := range customers {
		if !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
	}
	sort.Ints(ids)

	keys := make(map[int]int, len(ids))
	for i, id := range ids {
		keys[id] = i + 1
	}
	return keys
}

// productSurrogates assigns sequential surrogate keys to current product
// versions ordered by (start date, business key)
func productSurrogates(current []model.Product) map[string]int {
	ordered := make([]model.Product, len(current))
	copy(ordered, current)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, sj := startOrZero(ordered[i]), startOrZero(ordered[j])
		if !si.Equal(sj) {
			return si.Before(sj)
		}
		return ordered[i].Key < ordered[j].Key
	})

	keys := make(map[string]int, len(ordered))
	next := 1
	for _, p := range ordered {
		if _, ok := keys[p.Key]; ok {
			continue
		}
		keys[p.Key] = next
		next++
	}
	return keys
}
