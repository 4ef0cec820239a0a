package validation

import (
	"math"

	"github.com/yourorg/hoops-valuation/internal/category"
)

// fractionCutoff separates fraction-encoded percentages (0.45) from
// percent-encoded ones (45). Values legitimately below 1% are indistinguishable
// from fractions and get scaled up; upstream data does not disambiguate them.
const fractionCutoff = 1.0

// Normalize puts a raw stat on the scale thresholds are expressed in.
// Shooting percentages become 0-100; every other category is returned as-is.
func Normalize(c category.Category, raw float64) float64 {
	if c.IsPercentage() && raw < fractionCutoff {
		return raw * 100
	}
	return raw
}

// PassesThreshold reports whether the normalized raw value is strictly greater
// than min. NaN never passes.
func PassesThreshold(c category.Category, raw, min float64) bool {
	if math.IsNaN(raw) || math.IsNaN(min) {
		return false
	}
	return Normalize(c, raw) > min
}
