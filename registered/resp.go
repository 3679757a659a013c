/*
resp.go - RESP lifetime room and CESG grant engine

PURPOSE:
  Computes the shared $50,000 lifetime contribution room across all RESP
  accounts of one beneficiary, and the Canada Education Savings Grant
  entitlement: 20% matching on eligible contributions, $500 per year
  ($1,000 when unused room is carried forward), $7,200 lifetime, while the
  beneficiary is 17 or younger at year end.

CARRY-FORWARD:
  Grant room accrues at $500 for every eligible year of the plan's
  history, whether or not a contribution was made that year. Unused room
  carries forward and can double a later year's grant to $1,000 (matched
  on up to $5,000 of contributions instead of $2,500).
*/
package registered

import (
	"github.com/shopspring/decimal"
)

// RESPInput is the input to the RESP engine. Entries must be pooled across
// all RESP accounts of the beneficiary.
type RESPInput struct {
	BeneficiaryBirthDate Date
	CurrentYear          int
	Entries              PooledLedger
}

// CESGSummary is the grant entitlement picture for one beneficiary.
type CESGSummary struct {
	// Eligible is true while the beneficiary is at most 17 at year end.
	Eligible bool

	// TotalReceived is the lifetime grant received across all years.
	TotalReceived decimal.Decimal

	// RemainingLifetime is what is left of the $7,200 lifetime cap.
	RemainingLifetime decimal.Decimal

	// CurrentYearReceived is the grant received in the evaluation year.
	CurrentYearReceived decimal.Decimal

	// CurrentYearMax is the most grant payable this year: $500, or $1,000
	// with carry-forward, clamped to the remaining lifetime cap. Zero when
	// ineligible.
	CurrentYearMax decimal.Decimal

	// CarryForwardRoom is accumulated unused grant room beyond the current
	// year's base $500.
	CarryForwardRoom decimal.Decimal

	HasCarryForward bool
}

// RESPSummary is the computed room and grant summary.
type RESPSummary struct {
	TotalContributions decimal.Decimal
	RemainingRoom      decimal.Decimal
	OverContribution   decimal.Decimal
	CESG               CESGSummary
}

// CalculateRESPRoom computes lifetime room and grant entitlement as of
// CurrentYear.
func CalculateRESPRoom(in RESPInput) RESPSummary {
	totalContributions := sumByKind(in.Entries, EntryContribution, nil)

	return RESPSummary{
		TotalContributions: totalContributions,
		RemainingRoom:      maxZero(RESPLifetimeLimit.Sub(totalContributions)),
		OverContribution:   maxZero(totalContributions.Sub(RESPLifetimeLimit)),
		CESG:               calculateCESG(in),
	}
}

func calculateCESG(in RESPInput) CESGSummary {
	birthYear := in.BeneficiaryBirthDate.Year()
	eligible := in.CurrentYear-birthYear <= CESGMaxBeneficiaryAge

	grantsByYear := make(map[int]decimal.Decimal)
	totalReceived := decimal.Zero
	for _, e := range in.Entries {
		if e.Kind != EntryGrant {
			continue
		}
		year := e.Date.Year()
		grantsByYear[year] = grantsByYear[year].Add(e.Amount)
		totalReceived = totalReceived.Add(e.Amount)
	}

	remainingLifetime := maxZero(CESGLifetimeCap.Sub(totalReceived))
	currentYearReceived := grantsByYear[in.CurrentYear]

	// Grant room accrues $500 per eligible year of the plan's history,
	// less grants received in completed years. The current year's grant is
	// reported separately and netted against CurrentYearMax by callers, so
	// it does not reduce the accumulator here.
	startYear := in.CurrentYear
	if first, ok := firstEntryYear(in.Entries); ok && first < startYear {
		startYear = first
	}
	if startYear < birthYear {
		startYear = birthYear
	}
	accumulated := decimal.Zero
	for y := startYear; y <= in.CurrentYear; y++ {
		if y-birthYear > CESGMaxBeneficiaryAge {
			break
		}
		accumulated = accumulated.Add(CESGAnnualCap)
		if y < in.CurrentYear {
			accumulated = accumulated.Sub(grantsByYear[y])
		}
	}
	accumulated = decimal.Min(accumulated, remainingLifetime)

	hasCarryForward := accumulated.GreaterThan(CESGAnnualCap)

	currentYearMax := decimal.Zero
	if eligible {
		cap := CESGAnnualCap
		if hasCarryForward {
			cap = CESGAnnualCapWithCarryForward
		}
		currentYearMax = decimal.Min(cap, remainingLifetime)
	}

	return CESGSummary{
		Eligible:            eligible,
		TotalReceived:       totalReceived,
		RemainingLifetime:   remainingLifetime,
		CurrentYearReceived: currentYearReceived,
		CurrentYearMax:      currentYearMax,
		CarryForwardRoom:    maxZero(accumulated.Sub(CESGAnnualCap)),
		HasCarryForward:     hasCarryForward,
	}
}

// EstimateCESG projects the grant a hypothetical new contribution would
// attract, given the beneficiary's current entitlement picture.
//
// The eligible base already consumed this year is back-solved from the
// grant received (received / 20%). If stored grants were rounded to cents
// this division can drift by fractions of a cent; that sensitivity is
// accepted rather than papered over.
func EstimateCESG(contribution decimal.Decimal, g CESGSummary) decimal.Decimal {
	if !g.Eligible {
		return decimal.Zero
	}
	headroom := g.CurrentYearMax.Sub(g.CurrentYearReceived)
	if !headroom.IsPositive() {
		return decimal.Zero
	}

	base := CESGAnnualBase
	if g.HasCarryForward {
		base = CESGAnnualBaseWithCarryForward
	}
	alreadyEligible := g.CurrentYearReceived.Div(CESGMatchRate)
	remainingBase := maxZero(base.Sub(alreadyEligible))

	grant := decimal.Min(contribution, remainingBase).Mul(CESGMatchRate)
	grant = decimal.Min(grant, headroom)
	return decimal.Min(grant, g.RemainingLifetime)
}
