package registered

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DISCREPANCY CHECKER - Computed vs reported comparison
// =============================================================================

// discrepancyTolerance absorbs rounding noise between our arithmetic and
// reported figures. Differences of a dollar or less are not flagged.
var discrepancyTolerance = decimal.NewFromInt(1)

// Discrepancy compares an engine-computed figure against an externally
// reported one.
type Discrepancy struct {
	Calculated     decimal.Decimal
	Reported       decimal.Decimal
	Difference     decimal.Decimal
	HasDiscrepancy bool
}

// CheckDiscrepancy flags a material difference between a computed and a
// reported figure. Pure comparison, no side effects.
func CheckDiscrepancy(calculated, reported decimal.Decimal) Discrepancy {
	difference := calculated.Sub(reported).Abs()
	return Discrepancy{
		Calculated:     calculated,
		Reported:       reported,
		Difference:     difference,
		HasDiscrepancy: difference.GreaterThan(discrepancyTolerance),
	}
}
