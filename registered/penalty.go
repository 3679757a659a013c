/*
penalty.go - Monthly over-contribution penalty walks

PURPOSE:
  Regulatory penalties accrue at 1% of the over-contribution excess for
  each month the excess stands. These walks replay the ledger month by
  month, recompute room as of each month end with the same formulas as the
  room engines, and emit one record per penalized month.

WALK BOUNDS:
  The walk starts at the first transaction's year (the TFSA walk is
  additionally floored at the account's start year) and stops at the
  supplied current month - future months are never projected. The month
  cutoff is inclusive: an entry counts for a month when it is dated in
  that month or any earlier one.

NO COMPOUNDING:
  Each month's penalty is computed on that month's excess alone. A fixed
  excess held for N months yields N identical records.
*/
package registered

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyPenalty records one penalized month.
type MonthlyPenalty struct {
	Year    int
	Month   time.Month
	Excess  decimal.Decimal
	Penalty decimal.Decimal
}

// TFSAPenaltySchedule walks month by month and records a penalty for every
// month with excess TFSA contributions. TFSA has no buffer: any negative
// room is excess.
func TFSAPenaltySchedule(in TFSAInput, currentMonth time.Month) []MonthlyPenalty {
	firstYear, ok := firstEntryYear(in.Entries)
	if !ok {
		return nil
	}
	if in.StartYear > firstYear {
		firstYear = in.StartYear
	}

	var penalties []MonthlyPenalty
	walkMonths(firstYear, in.CurrentYear, currentMonth, func(year int, month time.Month) {
		room := CalculateTFSARoom(TFSAInput{
			StartYear:   in.StartYear,
			CurrentYear: year,
			Entries:     AccountLedger(entriesThroughMonth(in.Entries, year, month)),
			Snapshots:   snapshotsThroughYear(in.Snapshots, year),
		})
		if room.OverContribution.IsPositive() {
			penalties = append(penalties, penaltyRecord(year, month, room.OverContribution))
		}
	})
	return penalties
}

// RRSPPenaltySchedule walks month by month and records a penalty for every
// month where excess contributions exceed the $2,000 buffer. The
// applicable NOA is re-derived at each evaluated year.
func RRSPPenaltySchedule(in RRSPInput, currentMonth time.Month) []MonthlyPenalty {
	firstYear, ok := firstEntryYear(in.Entries)
	if !ok {
		return nil
	}

	var penalties []MonthlyPenalty
	walkMonths(firstYear, in.CurrentYear, currentMonth, func(year int, month time.Month) {
		remaining := rrspRemainingAt(year, PooledLedger(entriesThroughMonth(in.Entries, year, month)), in.Snapshots)
		excess := maxZero(remaining.Neg().Sub(RRSPOverContributionBuffer))
		if excess.IsPositive() {
			penalties = append(penalties, penaltyRecord(year, month, excess))
		}
	})
	return penalties
}

// =============================================================================
// WALK HELPERS
// =============================================================================

func walkMonths(fromYear, currentYear int, currentMonth time.Month, visit func(year int, month time.Month)) {
	for year := fromYear; year <= currentYear; year++ {
		lastMonth := time.December
		if year == currentYear {
			lastMonth = currentMonth
		}
		for month := time.January; month <= lastMonth; month++ {
			visit(year, month)
		}
	}
}

func penaltyRecord(year int, month time.Month, excess decimal.Decimal) MonthlyPenalty {
	return MonthlyPenalty{
		Year:    year,
		Month:   month,
		Excess:  excess,
		Penalty: excess.Mul(MonthlyPenaltyRate).Round(2),
	}
}

func firstEntryYear(entries []LedgerEntry) (int, bool) {
	found := false
	year := 0
	for _, e := range entries {
		if !found || e.Date.Year() < year {
			year = e.Date.Year()
			found = true
		}
	}
	return year, found
}

func entriesThroughMonth(entries []LedgerEntry, year int, month time.Month) []LedgerEntry {
	var kept []LedgerEntry
	for _, e := range entries {
		if e.Date.InOrBeforeMonth(year, month) {
			kept = append(kept, e)
		}
	}
	return kept
}

// snapshotsThroughYear drops snapshots from years after the one being
// evaluated, so a later CRA sync point does not reset history it postdates.
func snapshotsThroughYear(snapshots []TaxYearSnapshot, year int) []TaxYearSnapshot {
	var kept []TaxYearSnapshot
	for _, s := range snapshots {
		if s.TaxYear <= year {
			kept = append(kept, s)
		}
	}
	return kept
}
