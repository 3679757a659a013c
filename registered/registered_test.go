package registered_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mapleledger/contribution-engine/registered"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) registered.Date {
	return registered.NewDate(year, month, day)
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func moneyPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func contribution(year int, month time.Month, day int, amount float64) registered.LedgerEntry {
	return registered.LedgerEntry{
		Kind:    registered.EntryContribution,
		Amount:  money(amount),
		Date:    date(year, month, day),
		TaxYear: year,
	}
}

// rrspContribution attributes the entry to an explicit tax year, which may
// differ from the calendar year for first-sixty-days contributions.
func rrspContribution(taxYear, year int, month time.Month, day int, amount float64) registered.LedgerEntry {
	e := contribution(year, month, day, amount)
	e.TaxYear = taxYear
	return e
}

func withdrawal(year int, month time.Month, day int, amount float64) registered.LedgerEntry {
	return registered.LedgerEntry{
		Kind:    registered.EntryWithdrawal,
		Amount:  money(amount),
		Date:    date(year, month, day),
		TaxYear: year,
	}
}

func grantEntry(year int, month time.Month, day int, amount float64) registered.LedgerEntry {
	return registered.LedgerEntry{
		Kind:    registered.EntryGrant,
		Amount:  money(amount),
		Date:    date(year, month, day),
		TaxYear: year,
	}
}

func tfsaSync(taxYear int, room float64) registered.TaxYearSnapshot {
	return registered.TaxYearSnapshot{
		Person:          registered.PersonSelf,
		AccountType:     registered.AccountTFSA,
		TaxYear:         taxYear,
		CRARoomAsOfJan1: moneyPtr(room),
	}
}

func noaSnapshot(taxYear int, limit float64) registered.TaxYearSnapshot {
	return registered.TaxYearSnapshot{
		Person:            registered.PersonSelf,
		AccountType:       registered.AccountRRSP,
		TaxYear:           taxYear,
		NOADeductionLimit: moneyPtr(limit),
	}
}

func incomeSnapshot(taxYear int, earned float64) registered.TaxYearSnapshot {
	return registered.TaxYearSnapshot{
		Person:       registered.PersonSelf,
		AccountType:  registered.AccountRRSP,
		TaxYear:      taxYear,
		EarnedIncome: moneyPtr(earned),
	}
}
