package registered

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// SPOUSAL ATTRIBUTION - Trailing-window withdrawal attribution
// =============================================================================

// SpousalAttribution splits a spousal-account withdrawal between the
// contributing spouse and the account owner.
type SpousalAttribution struct {
	ContributionsInWindow   decimal.Decimal
	AttributedToContributor decimal.Decimal
	AttributedToOwner       decimal.Decimal
}

// AttributeSpousalWithdrawal applies the attribution rule: contributions
// made to the spousal account in the withdrawal's calendar year or the two
// preceding years are taxed back to the contributor, up to the withdrawal
// amount. The remainder is the owner's income.
func AttributeSpousalWithdrawal(withdrawalDate Date, amount decimal.Decimal, contributions AccountLedger) SpousalAttribution {
	windowStart := withdrawalDate.Year() - (SpousalAttributionWindowYears - 1)
	windowEnd := withdrawalDate.Year()

	inWindow := sumByKind(contributions, EntryContribution, func(e LedgerEntry) bool {
		return e.Date.Year() >= windowStart && e.Date.Year() <= windowEnd
	})

	toContributor := decimal.Min(amount, inWindow)
	return SpousalAttribution{
		ContributionsInWindow:   inWindow,
		AttributedToContributor: toContributor,
		AttributedToOwner:       amount.Sub(toContributor),
	}
}
