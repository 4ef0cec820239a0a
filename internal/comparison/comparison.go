// Package comparison builds side-by-side views of up to five players or teams.
package comparison

import (
	"errors"
	"fmt"

	"github.com/yourorg/hoops-valuation/internal/aggregate"
	"github.com/yourorg/hoops-valuation/internal/category"
	"github.com/yourorg/hoops-valuation/internal/model"
	"github.com/yourorg/hoops-valuation/internal/validation"
)

// MaxEntities is the largest number of entities compared at once
const MaxEntities = 5

var (
	// ErrSelectionFull is returned when adding beyond MaxEntities
	ErrSelectionFull = fmt.Errorf("comparison is limited to %d entries", MaxEntities)

	// ErrDuplicate is returned when the entity is already selected
	ErrDuplicate = errors.New("entity already selected")
)

// RadarCategories is the reduced set drawn on the compact radar chart
var RadarCategories = []category.Category{
	category.Points,
	category.Rebounds,
	category.Assists,
	category.Steals,
	category.Blocks,
	category.FieldGoalPct,
	category.FreeThrowPct,
}

// Selection is an ordered list of unique entities. Insertion order is legend order.
type Selection[E model.Valued] struct {
	items []E
}

// NewSelection builds a selection from previously stored entities, silently
// dropping duplicates and anything beyond MaxEntities.
func NewSelection[E model.Valued](entities ...E) *Selection[E] {
	s := &Selection[E]{}
	for _, e := range entities {
		_ = s.Add(e)
	}
	return s
}

// Add appends e. A duplicate is a no-op reported as ErrDuplicate; a full
// selection is left untouched and reports ErrSelectionFull.
func (s *Selection[E]) Add(e E) error {
	if s.Contains(e.Key()) {
		return ErrDuplicate
	}
	if len(s.items) >= MaxEntities {
		return ErrSelectionFull
	}
	s.items = append(s.items, e)
	return nil
}

// Remove drops the entity with the given key and reports whether it was present
func (s *Selection[E]) Remove(key string) bool {
	for i, e := range s.items {
		if e.Key() == key {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the selection
func (s *Selection[E]) Clear() {
	s.items = nil
}

// Contains reports whether an entity with the key is selected
func (s *Selection[E]) Contains(key string) bool {
	for _, e := range s.items {
		if e.Key() == key {
			return true
		}
	}
	return false
}

// Len returns the number of selected entities
func (s *Selection[E]) Len() int {
	return len(s.items)
}

// Items returns a copy of the selected entities in insertion order
func (s *Selection[E]) Items() []E {
	out := make([]E, len(s.items))
	copy(out, s.items)
	return out
}

// rawBestTolerance absorbs rounding when marking the best raw stat
const rawBestTolerance = 0.01

// Row is one category line of a comparison table. Values[i] belongs to the
// entity at slot i. Best lists every slot holding the highest value.
type Row struct {
	Category category.Category `json:"category"`
	Values   []float64         `json:"values"`
	Best     []int             `json:"best"`
}

// RawRow is one category line of the raw-stat table. A nil value means the
// entity has no such stat. Percentages are on the 0-100 scale.
type RawRow struct {
	Category category.Category `json:"category"`
	Values   []*float64        `json:"values"`
	Best     []int             `json:"best"`
}

// BuildRows emits one row per registry category in display order, with a
// zero for any entity lacking the category.
func BuildRows[E model.Valued](entities []E) []Row {
	return buildRows(entities, category.All())
}

// BuildRadarRows is BuildRows restricted to RadarCategories
func BuildRadarRows[E model.Valued](entities []E) []Row {
	return buildRows(entities, RadarCategories)
}

func buildRows[E model.Valued](entities []E, cats []category.Category) []Row {
	rows := make([]Row, len(cats))
	for r, c := range cats {
		values := make([]float64, len(entities))
		for i, e := range entities {
			values[i] = e.Values().Get(c)
		}
		rows[r] = Row{Category: c, Values: values, Best: BestSlots(values, 0)}
	}
	return rows
}

// BuildRawRows emits one raw-stat row per registry category. Percentage
// stats are normalized so fractions and percents compare on one scale.
func BuildRawRows[E model.Valued](entities []E) []RawRow {
	cats := category.All()
	rows := make([]RawRow, len(cats))
	for r, c := range cats {
		values := make([]*float64, len(entities))
		var present []float64
		var slots []int
		for i, e := range entities {
			raw, ok := e.Raw().Lookup(c)
			if !ok {
				continue
			}
			v := validation.Normalize(c, raw)
			values[i] = &v
			present = append(present, v)
			slots = append(slots, i)
		}

		best := []int{}
		for _, k := range BestSlots(present, rawBestTolerance) {
			best = append(best, slots[k])
		}
		rows[r] = RawRow{Category: c, Values: values, Best: best}
	}
	return rows
}

// BestSlots returns every index whose value is within tolerance of the
// maximum. Ties all count as best; an empty input has no best.
func BestSlots(values []float64, tolerance float64) []int {
	best := []int{}
	if len(values) == 0 {
		return best
	}
	top := values[0]
	for _, v := range values[1:] {
		if v > top {
			top = v
		}
	}
	for i, v := range values {
		if top-v <= tolerance {
			best = append(best, i)
		}
	}
	return best
}

// Totals returns the unpunted grand total of each entity: the sum of every
// z-score the data source returned, registry or not. The active punt set is
// deliberately not applied here, unlike every other total in the app.
func Totals[E model.Valued](entities []E) []float64 {
	out := make([]float64, len(entities))
	for i, e := range entities {
		out[i] = aggregate.GrandTotal(e.Values())
	}
	return out
}

// View is the complete payload of a comparison panel
type View struct {
	Names      []string  `json:"names"`
	Rows       []Row     `json:"rows"`
	Radar      []Row     `json:"radar"`
	RawRows    []RawRow  `json:"raw_rows"`
	Totals     []float64 `json:"totals"`
	BestTotals []int     `json:"best_totals"`
}

// BuildView assembles z-score, radar and raw rows plus totals for the selection
func BuildView[E model.Valued](s *Selection[E]) View {
	items := s.Items()
	names := make([]string, len(items))
	for i, e := range items {
		names[i] = e.Key()
	}
	totals := Totals(items)
	return View{
		Names:      names,
		Rows:       BuildRows(items),
		Radar:      BuildRadarRows(items),
		RawRows:    BuildRawRows(items),
		Totals:     totals,
		BestTotals: BestSlots(totals, 0),
	}
}
