/*
constants.go - Per-year limit tables and fixed program parameters

PURPOSE:
  Reference data for the room engines: the TFSA annual dollar limit and the
  RRSP annual limit by tax year, plus the scalar parameters of each program
  (buffers, penalty rate, grant rates, age caps).

MISSING-YEAR CONTRACT:
  Looking up a year outside the tables returns decimal zero, never an
  error. Future years accrue no room until the table is extended, and the
  rest of the computation degrades gracefully. Callers must not treat a
  zero lookup as a failure.

SEE ALSO:
  - tfsa.go, rrsp.go, resp.go: Consumers of these tables
*/
package registered

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ANNUAL LIMIT TABLES (2009-2026)
// =============================================================================

var tfsaAnnualLimits = map[int]int64{
	2009: 5000,
	2010: 5000,
	2011: 5000,
	2012: 5000,
	2013: 5500,
	2014: 5500,
	2015: 10000,
	2016: 5500,
	2017: 5500,
	2018: 5500,
	2019: 6000,
	2020: 6000,
	2021: 6000,
	2022: 6000,
	2023: 6500,
	2024: 7000,
	2025: 7000,
	2026: 7000,
}

var rrspAnnualLimits = map[int]int64{
	2009: 21000,
	2010: 22000,
	2011: 22450,
	2012: 22970,
	2013: 23820,
	2014: 24270,
	2015: 24930,
	2016: 25370,
	2017: 26010,
	2018: 26230,
	2019: 26500,
	2020: 27230,
	2021: 27830,
	2022: 29210,
	2023: 30780,
	2024: 31560,
	2025: 32490,
	2026: 33810,
}

// TFSAAnnualLimit returns the TFSA dollar limit for a tax year.
// Unmapped years return zero.
func TFSAAnnualLimit(year int) decimal.Decimal {
	return decimal.NewFromInt(tfsaAnnualLimits[year])
}

// RRSPAnnualLimit returns the RRSP annual limit for a tax year, the
// ceiling on the 18%-of-earned-income accrual. Unmapped years return zero.
func RRSPAnnualLimit(year int) decimal.Decimal {
	return decimal.NewFromInt(rrspAnnualLimits[year])
}

// =============================================================================
// PROGRAM PARAMETERS
// =============================================================================

var (
	// RRSPOverContributionBuffer is the lifetime excess an individual may
	// carry before the monthly penalty applies.
	RRSPOverContributionBuffer = decimal.NewFromInt(2000)

	// MonthlyPenaltyRate is the regulatory penalty on over-contribution
	// excess, per month.
	MonthlyPenaltyRate = decimal.NewFromFloat(0.01)

	// rrspAccrualRate is the share of prior-year earned income that
	// becomes new RRSP room.
	rrspAccrualRate = decimal.NewFromFloat(0.18)

	// RESPLifetimeLimit is the lifetime contribution cap shared across all
	// RESP accounts of one beneficiary.
	RESPLifetimeLimit = decimal.NewFromInt(50000)

	// CESGMatchRate is the grant match on eligible RESP contributions.
	CESGMatchRate = decimal.NewFromFloat(0.20)

	// CESGAnnualBase is the contribution amount eligible for matching in a
	// year; doubles when carry-forward room is used.
	CESGAnnualBase                 = decimal.NewFromInt(2500)
	CESGAnnualBaseWithCarryForward = decimal.NewFromInt(5000)

	// CESGAnnualCap is the grant payable per year; doubles with
	// carry-forward.
	CESGAnnualCap                 = decimal.NewFromInt(500)
	CESGAnnualCapWithCarryForward = decimal.NewFromInt(1000)

	// CESGLifetimeCap is the lifetime grant per beneficiary.
	CESGLifetimeCap = decimal.NewFromInt(7200)
)

const (
	// SpousalAttributionWindowYears is the trailing calendar-year window,
	// inclusive of the withdrawal year, over which spousal contributions
	// attribute withdrawal income back to the contributor.
	SpousalAttributionWindowYears = 3

	// CESGMaxBeneficiaryAge is the oldest age (at year end) a beneficiary
	// may be and still attract grants.
	CESGMaxBeneficiaryAge = 17
)
