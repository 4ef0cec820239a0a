// Package ranking orders players or teams for the ranking screens.
package ranking

import (
	"sort"

	"github.com/yourorg/hoops-valuation/internal/aggregate"
	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/validation"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Key selects what entities are ordered by
type Key string

// Special sort keys. Any other key is read as a category code.
const (
	KeyName   Key = "name"
	KeyTotalZ Key = "total_z"
)

// Direction is the sort direction
type Direction string

// Sort directions
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps anything other than "asc" to Descending
func ParseDirection(s string) Direction {
	if Direction(s) == Ascending {
		return Ascending
	}
	return Descending
}

// Flip returns the opposite direction
func (d Direction) Flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// SortState is the remembered column header state of a table
type SortState struct {
	Key       Key       `json:"sortBy"`
	Direction Direction `json:"sortDir"`
}

// DefaultSort orders by punted total, best first
func DefaultSort() SortState {
	return SortState{Key: KeyTotalZ, Direction: Descending}
}

// Toggle applies a header click: the active key flips direction, a new key
// starts descending.
func (s SortState) Toggle(key Key) SortState {
	if s.Key == key {
		return SortState{Key: key, Direction: s.Direction.Flip()}
	}
	return SortState{Key: key, Direction: Descending}
}

// Options configures a ranking pass
type Options struct {
	Filters  model.FilterSet
	Sort     SortState
	Punted   model.PuntSet
	Language language.Tag
}

// Rank filters entities by raw-stat thresholds and orders them by the chosen key.
// Ties on the primary key fall back to name ascending, then to input order, so
// output is reproducible. The input slice is not modified.
func Rank[E model.Valued](entities []E, opts Options) []E {
	kept := validation.FilterByThresholds(entities, opts.Filters)

	out := make([]E, len(kept))
	copy(out, kept)
	if len(out) < 2 {
		return out
	}

	tag := opts.Language
	if tag == language.Und {
		tag = language.English
	}
	col := collate.New(tag)

	key := opts.Sort.Key
	if key == "" {
		key = KeyTotalZ
	}
	desc := opts.Sort.Direction != Ascending

	// Resolve sort values once instead of per comparison.
	values := make([]float64, len(out))
	if key != KeyName {
		for i, e := range out {
			values[i] = sortValue(e, key, opts.Punted)
		}
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		i, j := idx[a], idx[b]
		if key == KeyName {
			c := col.CompareString(out[i].Key(), out[j].Key())
			if desc {
				return c > 0
			}
			return c < 0
		}

		if values[i] != values[j] {
			if desc {
				return values[i] > values[j]
			}
			return values[i] < values[j]
		}
		return col.CompareString(out[i].Key(), out[j].Key()) < 0
	})

	sorted := make([]E, len(out))
	for pos, i := range idx {
		sorted[pos] = out[i]
	}
	return sorted
}

// sortValue resolves the numeric sort value of an entity for a non-name key
func sortValue(e model.Valued, key Key, punted model.PuntSet) float64 {
	if key == KeyTotalZ {
		return aggregate.TotalValue(e.Values(), punted)
	}
	return e.Values().Get(category.Category(key))
}
