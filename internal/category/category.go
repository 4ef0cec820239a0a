// Package category defines the fixed, ordered set of fantasy statistical categories.
// Order is display order and drives every generated table.
package category

import "strings"

// Category is a statistical category code as used by the analytics API
type Category string

// League categories in display order
const (
	Points           Category = "PTS"
	Rebounds         Category = "REB"
	Assists          Category = "AST"
	Steals           Category = "STL"
	Blocks           Category = "BLK"
	ThreesMade       Category = "3PM"
	DoubleDoubles    Category = "DD"
	FieldGoalPct     Category = "FG%"
	FreeThrowPct     Category = "FT%"
	ThreePointPct    Category = "3PT%"
	AssistToTurnover Category = "A/TO"
)

var ordered = [...]Category{
	Points,
	Rebounds,
	Assists,
	Steals,
	Blocks,
	ThreesMade,
	DoubleDoubles,
	FieldGoalPct,
	FreeThrowPct,
	ThreePointPct,
	AssistToTurnover,
}

var index = func() map[Category]int {
	m := make(map[Category]int, len(ordered))
	for i, c := range ordered {
		m[c] = i
	}
	return m
}()

// All returns the registry in display order. The caller owns the returned slice.
func All() []Category {
	out := make([]Category, len(ordered))
	copy(out, ordered[:])
	return out
}

// Count is the number of registered categories
func Count() int {
	return len(ordered)
}

// IsKnown reports whether c is part of the registry
func IsKnown(c Category) bool {
	_, ok := index[c]
	return ok
}

// Index returns the display position of c, or -1 when c is not registered
func Index(c Category) int {
	if i, ok := index[c]; ok {
		return i
	}
	return -1
}

// IsPercentage reports whether c is one of the shooting percentages
func (c Category) IsPercentage() bool {
	switch c {
	case FieldGoalPct, FreeThrowPct, ThreePointPct:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// Parse resolves a code to a registered category. Matching ignores case and
// surrounding whitespace so "fg%" and " PTS " both resolve.
func Parse(code string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(code)))
	if _, ok := index[c]; ok {
		return c, true
	}
	return "", false
}
