/*
rrsp.go - RRSP deduction limit engine

PURPOSE:
  Computes the RRSP deduction limit for one contributor from either a
  tax-authority-reported base (the Notice of Assessment) plus room accrued
  since, or from scratch out of the earned-income history.

POOLING:
  RRSP room belongs to the contributor, not to any one account: personal
  accounts and spousal accounts they contribute to all draw on the same
  limit. The engine therefore takes a PooledLedger that the caller has
  assembled across every such account.

NOA ANCHOR:
  An NOA reported for tax year X states the deduction limit valid starting
  tax year X+1 (the base year). From the base year forward, each year
  accrues min(18% of prior-year earned income, that year's RRSP annual
  limit), and only contributions attributed to tax years at or after the
  base year are subtracted - earlier ones are already reflected in the
  reported figure.

BUFFER:
  A $2,000 lifetime over-contribution buffer shields excess from penalty.
  Excess within the buffer reports WithinBuffer=true and a zero
  OverContribution.
*/
package registered

import (
	"github.com/shopspring/decimal"
)

// RRSPInput is the input to the RRSP engine. Entries must be pooled across
// all accounts drawing on this contributor's room; Snapshots are the
// contributor's RRSP snapshots.
type RRSPInput struct {
	CurrentYear int
	Entries     PooledLedger
	Snapshots   []TaxYearSnapshot
}

// RRSPRoom is the computed deduction limit summary.
type RRSPRoom struct {
	// DeductionLimit is the gross limit before subtracting what has been
	// used: RemainingRoom plus lifetime contributions.
	DeductionLimit decimal.Decimal

	// RemainingRoom may be negative when over-contributed.
	RemainingRoom decimal.Decimal

	// UnusedRoom is RemainingRoom clamped at zero (display).
	UnusedRoom decimal.Decimal

	// TotalContributions is the lifetime contribution total across the
	// pool, regardless of which path computed the limit.
	TotalContributions decimal.Decimal

	// OverContribution is the excess beyond the $2,000 buffer.
	OverContribution decimal.Decimal

	// WithinBuffer is true when excess exists but the buffer shields it.
	WithinBuffer bool
}

// CalculateRRSPRoom computes the contributor's deduction limit for
// CurrentYear.
func CalculateRRSPRoom(in RRSPInput) RRSPRoom {
	totalContributions := sumByKind(in.Entries, EntryContribution, nil)
	income := earnedIncomeByYear(in.Snapshots)

	var remaining decimal.Decimal
	if noa, ok := latestNOA(in.Snapshots); ok {
		baseYear := noa.TaxYear + 1
		limit := *noa.NOADeductionLimit
		for y := baseYear; y <= in.CurrentYear; y++ {
			limit = limit.Add(accruedRoom(income, y))
		}
		used := sumByKind(in.Entries, EntryContribution, func(e LedgerEntry) bool {
			return e.TaxYear >= baseYear
		})
		remaining = limit.Sub(used)
	} else {
		// No NOA ever reported: rebuild the limit from the earned-income
		// history and subtract every contribution, since there is no base
		// year to anchor a filter on.
		limit := decimal.Zero
		for year := range income {
			roomYear := year + 1
			if roomYear <= in.CurrentYear {
				limit = limit.Add(accruedRoom(income, roomYear))
			}
		}
		remaining = limit.Sub(totalContributions)
	}

	rawExcess := remaining.Neg()
	return RRSPRoom{
		DeductionLimit:     remaining.Add(totalContributions),
		RemainingRoom:      remaining,
		UnusedRoom:         maxZero(remaining),
		TotalContributions: totalContributions,
		OverContribution:   maxZero(rawExcess.Sub(RRSPOverContributionBuffer)),
		WithinBuffer:       rawExcess.IsPositive() && rawExcess.LessThanOrEqual(RRSPOverContributionBuffer),
	}
}

// accruedRoom returns the new room earned in roomYear: 18% of the prior
// year's earned income, capped at the year's RRSP annual limit. Years with
// no income snapshot accrue nothing.
func accruedRoom(income map[int]decimal.Decimal, roomYear int) decimal.Decimal {
	ei, ok := income[roomYear-1]
	if !ok {
		return decimal.Zero
	}
	return decimal.Min(ei.Mul(rrspAccrualRate), RRSPAnnualLimit(roomYear))
}

// earnedIncomeByYear indexes the snapshots' earned-income figures by tax
// year.
func earnedIncomeByYear(snapshots []TaxYearSnapshot) map[int]decimal.Decimal {
	income := make(map[int]decimal.Decimal)
	for _, s := range snapshots {
		if s.EarnedIncome != nil {
			income[s.TaxYear] = *s.EarnedIncome
		}
	}
	return income
}

// latestNOA returns the snapshot with the latest tax year carrying a
// reported deduction limit, if any.
func latestNOA(snapshots []TaxYearSnapshot) (TaxYearSnapshot, bool) {
	return latestNOAFor(snapshots, 0, false)
}

// latestNOAFor optionally restricts the search to NOAs whose base year
// (TaxYear+1) does not exceed maxBaseYear. The penalty walk uses this to
// re-derive the applicable NOA at each evaluated year.
func latestNOAFor(snapshots []TaxYearSnapshot, maxBaseYear int, capped bool) (TaxYearSnapshot, bool) {
	var best TaxYearSnapshot
	found := false
	for _, s := range snapshots {
		if s.NOADeductionLimit == nil {
			continue
		}
		if capped && s.TaxYear+1 > maxBaseYear {
			continue
		}
		if !found || s.TaxYear > best.TaxYear {
			best = s
			found = true
		}
	}
	return best, found
}

// rrspRemainingAt computes the remaining room at the end of year, for
// entries already filtered to the evaluation cutoff. The applicable NOA is
// the latest whose base year is at or before the evaluated year.
func rrspRemainingAt(year int, entries PooledLedger, snapshots []TaxYearSnapshot) decimal.Decimal {
	income := earnedIncomeByYear(snapshots)

	if noa, ok := latestNOAFor(snapshots, year, true); ok {
		baseYear := noa.TaxYear + 1
		limit := *noa.NOADeductionLimit
		for y := baseYear; y <= year; y++ {
			limit = limit.Add(accruedRoom(income, y))
		}
		used := sumByKind(entries, EntryContribution, func(e LedgerEntry) bool {
			return e.TaxYear >= baseYear
		})
		return limit.Sub(used)
	}

	limit := decimal.Zero
	for incomeYear := range income {
		roomYear := incomeYear + 1
		if roomYear <= year {
			limit = limit.Add(accruedRoom(income, roomYear))
		}
	}
	return limit.Sub(sumByKind(entries, EntryContribution, nil))
}
