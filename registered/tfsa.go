/*
tfsa.go - TFSA contribution room engine

PURPOSE:
  Computes cumulative TFSA room for one account. Room accumulates by annual
  dollar limits, shrinks with contributions, and is restored by withdrawals
  on January 1 of the following calendar year.

TWO PATHS:
  CRA sync:     When any snapshot carries a CRA-reported room figure, the
                latest one is a single authoritative reset point. Room is
                rebuilt forward from that figure.
  From scratch: Otherwise room is accumulated from StartYear (the year the
                holder first had room, usually 2009 or the year they
                turned 18).

DISPLAY vs ROOM MATH:
  On the sync path the room arithmetic only considers entries from the
  sync year onward, but TotalContributions and RestoredWithdrawals still
  report lifetime totals. The two scopes are deliberately different and
  must not be conflated.
*/
package registered

import (
	"github.com/shopspring/decimal"
)

// TFSAInput is the input to the TFSA room engine. Entries are for a single
// account; Snapshots are the holder's TFSA snapshots.
type TFSAInput struct {
	StartYear   int
	CurrentYear int
	Entries     AccountLedger
	Snapshots   []TaxYearSnapshot
}

// TFSARoom is the computed room summary.
type TFSARoom struct {
	// TotalRoom is the accumulated room ceiling: the sum of annual limits
	// from StartYear, or the CRA reset figure plus post-sync limits.
	TotalRoom decimal.Decimal

	// TotalContributions is the lifetime contribution total (display).
	TotalContributions decimal.Decimal

	// RestoredWithdrawals is the lifetime total of withdrawals whose room
	// has been restored, i.e. withdrawals dated before CurrentYear (display).
	RestoredWithdrawals decimal.Decimal

	// CurrentYearWithdrawals restore room only next January 1; reported
	// separately and never netted into RemainingRoom.
	CurrentYearWithdrawals decimal.Decimal

	RemainingRoom    decimal.Decimal
	OverContribution decimal.Decimal
}

// CalculateTFSARoom computes TFSA room as of January 1 of CurrentYear plus
// CurrentYear activity to date.
func CalculateTFSARoom(in TFSAInput) TFSARoom {
	lifetimeContributions := sumByKind(in.Entries, EntryContribution, nil)
	restored := sumByKind(in.Entries, EntryWithdrawal, func(e LedgerEntry) bool {
		return e.Date.Year() < in.CurrentYear
	})
	currentYearWithdrawals := sumByKind(in.Entries, EntryWithdrawal, func(e LedgerEntry) bool {
		return e.Date.Year() == in.CurrentYear
	})

	sync, hasSync := latestCRASync(in.Snapshots)

	var totalRoom, remaining decimal.Decimal
	if hasSync {
		// The reported figure already embeds the sync year's own annual
		// limit; only years strictly after it are added.
		totalRoom = *sync.CRARoomAsOfJan1
		for y := sync.TaxYear + 1; y <= in.CurrentYear; y++ {
			totalRoom = totalRoom.Add(TFSAAnnualLimit(y))
		}

		syncContributions := sumByKind(in.Entries, EntryContribution, func(e LedgerEntry) bool {
			return e.Date.Year() >= sync.TaxYear
		})
		syncRestored := sumByKind(in.Entries, EntryWithdrawal, func(e LedgerEntry) bool {
			return e.Date.Year() >= sync.TaxYear && e.Date.Year() < in.CurrentYear
		})
		remaining = totalRoom.Sub(syncContributions).Add(syncRestored)
	} else {
		totalRoom = decimal.Zero
		for y := in.StartYear; y <= in.CurrentYear; y++ {
			totalRoom = totalRoom.Add(TFSAAnnualLimit(y))
		}
		remaining = totalRoom.Sub(lifetimeContributions).Add(restored)
	}

	return TFSARoom{
		TotalRoom:              totalRoom,
		TotalContributions:     lifetimeContributions,
		RestoredWithdrawals:    restored,
		CurrentYearWithdrawals: currentYearWithdrawals,
		RemainingRoom:          remaining,
		// No buffer for TFSA: any negative room is excess.
		OverContribution: maxZero(remaining.Neg()),
	}
}

// latestCRASync returns the snapshot with the latest tax year that carries
// a CRA-reported room figure, if any.
func latestCRASync(snapshots []TaxYearSnapshot) (TaxYearSnapshot, bool) {
	var best TaxYearSnapshot
	found := false
	for _, s := range snapshots {
		if s.CRARoomAsOfJan1 == nil {
			continue
		}
		if !found || s.TaxYear > best.TaxYear {
			best = s
			found = true
		}
	}
	return best, found
}
