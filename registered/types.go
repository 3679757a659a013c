/*
Package registered provides the core contribution-room engine for Canadian
registered accounts (TFSA, RRSP, RESP).

PURPOSE:
  This package contains the pure rule computations: cumulative TFSA room,
  NOA-anchored RRSP deduction limits, RESP lifetime room with CESG grant
  accrual, month-by-month over-contribution penalties, and spousal
  withdrawal attribution. Every function is deterministic over its inputs.

KEY CONCEPTS IN THIS FILE (types.go):
  - LedgerEntry: An immutable dated financial event (contribution,
    withdrawal, or grant). Amounts are always positive; the kind encodes
    direction.
  - TaxYearSnapshot: A point-in-time fact reported by the tax authority
    for one person, account type, and tax year.
  - AccountLedger / PooledLedger: Distinct list types. RRSP and RESP room
    is shared across accounts, so their engines require a PooledLedger that
    the caller has already assembled across every account sharing the room.

DESIGN PRINCIPLES:
  1. No I/O and no clock reads: the evaluation year and month are inputs.
  2. Precision: decimal.Decimal for all money, never floats.
  3. Domain outcomes are values: over-contribution, a missing NOA, or a
     missing earned-income history are representable results, not errors.
  4. Inputs are never mutated; callers own persistence and pooling.

USAGE:
  room := registered.CalculateTFSARoom(registered.TFSAInput{
      StartYear:   2009,
      CurrentYear: 2026,
      Entries:     entries,
      Snapshots:   snapshots,
  })

SEE ALSO:
  - constants.go: Per-year limit tables and program parameters
  - tfsa.go, rrsp.go, resp.go: Room engines
  - penalty.go: Monthly over-contribution penalty walks
*/
package registered

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER ENTRY - Immutable dated financial event
// =============================================================================

type EntryKind string

const (
	EntryContribution EntryKind = "contribution"
	EntryWithdrawal   EntryKind = "withdrawal"
	EntryGrant        EntryKind = "grant" // government grant deposit (CESG)
)

// LedgerEntry records a single dated event against a registered account.
//
// INVARIANT: Amount is strictly positive. Direction is encoded by Kind,
// never by sign.
type LedgerEntry struct {
	Kind   EntryKind
	Amount decimal.Decimal
	Date   Date

	// TaxYear is the tax year the entry is attributed to. For RRSP
	// contributions made in the first sixty days of a calendar year this
	// may be the prior year; for everything else it matches Date's year.
	TaxYear int

	// AccountID identifies the owning account. Engines never branch on it;
	// it exists so callers can pool and filter before invoking an engine.
	AccountID string
}

// AccountLedger holds the entries of a single account. TFSA room and
// spousal attribution operate per account.
type AccountLedger []LedgerEntry

// PooledLedger holds entries merged across every account sharing one pool
// of room: all RRSP accounts of one contributor, or all RESP accounts of
// one beneficiary. The distinct type makes the pooling precondition part
// of the engine signatures.
type PooledLedger []LedgerEntry

// Pool merges account ledgers into a single pooled ledger.
func Pool(ledgers ...AccountLedger) PooledLedger {
	var pooled PooledLedger
	for _, l := range ledgers {
		pooled = append(pooled, l...)
	}
	return pooled
}

// =============================================================================
// TAX YEAR SNAPSHOT - Point-in-time reported figures
// =============================================================================

// Person identifies whose room pool a snapshot belongs to.
type Person string

const (
	PersonSelf   Person = "self"
	PersonSpouse Person = "spouse"
)

// AccountType is the registered account program a snapshot applies to.
type AccountType string

const (
	AccountTFSA AccountType = "TFSA"
	AccountRRSP AccountType = "RRSP"
	AccountRESP AccountType = "RESP"
)

// TaxYearSnapshot captures tax-authority-reported figures for one person,
// account type, and tax year. Snapshots are facts: the engines read them
// and never write them.
//
// At most one of NOADeductionLimit / CRARoomAsOfJan1 is meaningful for a
// given snapshot, depending on AccountType.
type TaxYearSnapshot struct {
	Person      Person
	AccountType AccountType
	TaxYear     int

	// EarnedIncome is the earned income for TaxYear, used to accrue new
	// RRSP room in TaxYear+1.
	EarnedIncome *decimal.Decimal

	// NOADeductionLimit is the RRSP deduction limit from the Notice of
	// Assessment for TaxYear. It states the limit valid starting TaxYear+1.
	NOADeductionLimit *decimal.Decimal

	// CRARoomAsOfJan1 is the CRA-reported cumulative TFSA room as of
	// January 1 of TaxYear.
	CRARoomAsOfJan1 *decimal.Decimal
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// maxZero clamps negative amounts to zero.
func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// sumByKind totals the entries of one kind, optionally filtered.
func sumByKind(entries []LedgerEntry, kind EntryKind, keep func(LedgerEntry) bool) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Kind != kind {
			continue
		}
		if keep != nil && !keep(e) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}
