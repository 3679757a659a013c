package planner_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleledger/contribution-engine/planner"
	"github.com/mapleledger/contribution-engine/registered"
	"github.com/mapleledger/contribution-engine/store"
	"github.com/mapleledger/contribution-engine/store/memory"
)

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func date(year int, month time.Month, day int) registered.Date {
	return registered.NewDate(year, month, day)
}

func seedPerson(t *testing.T, s store.Store, id string) {
	t.Helper()
	require.NoError(t, s.SavePerson(context.Background(), store.Person{
		ID:       id,
		Name:     "Person " + id,
		Relation: registered.PersonSelf,
	}))
}

func seedAccount(t *testing.T, s store.Store, a store.Account) {
	t.Helper()
	require.NoError(t, s.SaveAccount(context.Background(), a))
}

func seedEntry(t *testing.T, s store.Store, accountID string, kind registered.EntryKind, amount float64, d registered.Date) {
	t.Helper()
	require.NoError(t, s.AppendEntry(context.Background(), store.EntryRecord{
		ID:        accountID + "-" + d.String(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    money(amount),
		Date:      d,
		TaxYear:   d.Year(),
	}))
}

// =============================================================================
// TFSA
// =============================================================================

func TestPlanner_TFSASummary(t *testing.T) {
	// GIVEN a TFSA opened in 2020 with one contribution
	s := memory.New()
	seedPerson(t, s, "p1")
	seedAccount(t, s, store.Account{ID: "tfsa1", OwnerID: "p1", Type: registered.AccountTFSA, TFSAStartYear: 2020})
	seedEntry(t, s, "tfsa1", registered.EntryContribution, 10000, date(2021, time.March, 1))

	// WHEN summarizing as of 2026
	report, err := planner.New(s).TFSASummary(context.Background(), "tfsa1", planner.AsOf{Year: 2026, Month: time.June})

	// THEN room accrues 2020-2026 (45,500) less the contribution
	require.NoError(t, err)
	assert.True(t, report.Room.TotalRoom.Equal(money(45500)))
	assert.True(t, report.Room.RemainingRoom.Equal(money(35500)))
	assert.Empty(t, report.Penalties)
	assert.Nil(t, report.Discrepancy)
}

func TestPlanner_TFSASummary_DefaultStartYear(t *testing.T) {
	// GIVEN an account without a recorded start year
	s := memory.New()
	seedPerson(t, s, "p1")
	seedAccount(t, s, store.Account{ID: "tfsa1", OwnerID: "p1", Type: registered.AccountTFSA})

	// WHEN summarizing as of 2026
	report, err := planner.New(s).TFSASummary(context.Background(), "tfsa1", planner.AsOf{Year: 2026, Month: time.January})

	// THEN accrual starts at the program's first year, 2009
	require.NoError(t, err)
	assert.True(t, report.Room.TotalRoom.Equal(money(109000)))
}

func TestPlanner_TFSASummary_DiscrepancyAgainstCRAFigure(t *testing.T) {
	// GIVEN a 2024 CRA sync that disagrees with our ledger by more than $1
	s := memory.New()
	seedPerson(t, s, "p1")
	seedAccount(t, s, store.Account{ID: "tfsa1", OwnerID: "p1", Type: registered.AccountTFSA, TFSAStartYear: 2020})
	seedEntry(t, s, "tfsa1", registered.EntryContribution, 10000, date(2021, time.March, 1))
	reported := money(22000)
	require.NoError(t, s.SaveSnapshot(context.Background(), store.SnapshotRecord{
		ID:       "snap1",
		PersonID: "p1",
		Snapshot: registered.TaxYearSnapshot{
			Person:          registered.PersonSelf,
			AccountType:     registered.AccountTFSA,
			TaxYear:         2024,
			CRARoomAsOfJan1: &reported,
		},
	}))

	// WHEN summarizing
	report, err := planner.New(s).TFSASummary(context.Background(), "tfsa1", planner.AsOf{Year: 2026, Month: time.June})

	// THEN from-scratch room as of Jan 1 2024 is 2020-2024 limits (32,500)
	// minus 10,000 = 22,500, and the $500 gap is flagged
	require.NoError(t, err)
	require.NotNil(t, report.Discrepancy)
	assert.True(t, report.Discrepancy.Calculated.Equal(money(22500)))
	assert.True(t, report.Discrepancy.Difference.Equal(money(500)))
	assert.True(t, report.Discrepancy.HasDiscrepancy)
}

func TestPlanner_TFSASummary_WrongAccountType(t *testing.T) {
	s := memory.New()
	seedPerson(t, s, "p1")
	seedAccount(t, s, store.Account{ID: "rrsp1", OwnerID: "p1", Type: registered.AccountRRSP})

	_, err := planner.New(s).TFSASummary(context.Background(), "rrsp1", planner.AsOf{Year: 2026, Month: time.January})

	assert.Error(t, err)
}

func TestPlanner_TFSASummary_UnknownAccount(t *testing.T) {
	_, err := planner.New(memory.New()).TFSASummary(context.Background(), "nope", planner.AsOf{Year: 2026, Month: time.January})

	assert.ErrorIs(t, err, store.ErrNotFound)
}

// =============================================================================
// RRSP
// =============================================================================

func TestPlanner_RRSPSummary_PoolsPersonalAndSpousal(t *testing.T) {
	// GIVEN a personal RRSP and a spousal RRSP funded by the same
	// contributor, plus a 2025 NOA
	s := memory.New()
	seedPerson(t, s, "p1")
	seedPerson(t, s, "p2")
	seedAccount(t, s, store.Account{ID: "own", OwnerID: "p1", Type: registered.AccountRRSP})
	seedAccount(t, s, store.Account{ID: "sp", OwnerID: "p2", Type: registered.AccountRRSP, Spousal: true, ContributorID: "p1"})
	seedEntry(t, s, "own", registered.EntryContribution, 6000, date(2026, time.February, 1))
	seedEntry(t, s, "sp", registered.EntryContribution, 4000, date(2026, time.March, 1))
	limit := money(30000)
	require.NoError(t, s.SaveSnapshot(context.Background(), store.SnapshotRecord{
		ID:       "noa",
		PersonID: "p1",
		Snapshot: registered.TaxYearSnapshot{
			Person:            registered.PersonSelf,
			AccountType:       registered.AccountRRSP,
			TaxYear:           2025,
			NOADeductionLimit: &limit,
		},
	}))

	// WHEN summarizing the contributor as of 2026
	report, err := planner.New(s).RRSPSummary(context.Background(), "p1", planner.AsOf{Year: 2026, Month: time.June})

	// THEN both accounts draw on the one pool of room
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"own", "sp"}, report.AccountIDs)
	assert.True(t, report.Room.TotalContributions.Equal(money(10000)))
	assert.True(t, report.Room.RemainingRoom.Equal(money(20000)))
}

func TestPlanner_RRSPSummary_UnknownPerson(t *testing.T) {
	_, err := planner.New(memory.New()).RRSPSummary(context.Background(), "ghost", planner.AsOf{Year: 2026, Month: time.January})

	assert.ErrorIs(t, err, store.ErrNotFound)
}

// =============================================================================
// RESP
// =============================================================================

func TestPlanner_RESPSummary_PoolsAcrossAccounts(t *testing.T) {
	// GIVEN two RESP accounts for one beneficiary
	s := memory.New()
	seedPerson(t, s, "p1")
	require.NoError(t, s.SaveBeneficiary(context.Background(), store.Beneficiary{
		ID:        "kid",
		Name:      "Kid",
		BirthDate: date(2018, time.May, 10),
	}))
	seedAccount(t, s, store.Account{ID: "resp1", OwnerID: "p1", Type: registered.AccountRESP, BeneficiaryID: "kid"})
	seedAccount(t, s, store.Account{ID: "resp2", OwnerID: "p1", Type: registered.AccountRESP, BeneficiaryID: "kid"})
	seedEntry(t, s, "resp1", registered.EntryContribution, 30000, date(2024, time.April, 1))
	seedEntry(t, s, "resp2", registered.EntryContribution, 15000, date(2025, time.April, 1))
	seedEntry(t, s, "resp1", registered.EntryGrant, 500, date(2024, time.May, 1))

	// WHEN summarizing as of 2026
	report, err := planner.New(s).RESPSummary(context.Background(), "kid", planner.AsOf{Year: 2026, Month: time.June})

	// THEN the lifetime limit applies to the pooled total
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"resp1", "resp2"}, report.AccountIDs)
	assert.True(t, report.Summary.TotalContributions.Equal(money(45000)))
	assert.True(t, report.Summary.RemainingRoom.Equal(money(5000)))
	assert.True(t, report.Summary.CESG.TotalReceived.Equal(money(500)))
	assert.True(t, report.Summary.CESG.Eligible)
}

func TestPlanner_EstimateGrant(t *testing.T) {
	// GIVEN a beneficiary with no grant history this year
	s := memory.New()
	seedPerson(t, s, "p1")
	require.NoError(t, s.SaveBeneficiary(context.Background(), store.Beneficiary{
		ID:        "kid",
		BirthDate: date(2020, time.January, 15),
	}))
	seedAccount(t, s, store.Account{ID: "resp1", OwnerID: "p1", Type: registered.AccountRESP, BeneficiaryID: "kid"})
	seedEntry(t, s, "resp1", registered.EntryContribution, 1000, date(2026, time.February, 1))

	// WHEN estimating the grant on a further $2,000 contribution
	grant, err := planner.New(s).EstimateGrant(context.Background(), "kid", money(2000), planner.AsOf{Year: 2026, Month: time.June})

	// THEN 20% of the eligible amount is matched
	require.NoError(t, err)
	assert.True(t, grant.Equal(money(400)))
}

func TestPlanner_EstimateGrant_UnknownBeneficiary(t *testing.T) {
	_, err := planner.New(memory.New()).EstimateGrant(context.Background(), "nope", money(1000), planner.AsOf{Year: 2026, Month: time.January})

	assert.ErrorIs(t, err, store.ErrNotFound)
}

// =============================================================================
// SPOUSAL ATTRIBUTION
// =============================================================================

func TestPlanner_SpousalAttribution(t *testing.T) {
	// GIVEN a spousal account with contributions inside and outside the
	// three-year window
	s := memory.New()
	seedPerson(t, s, "p1")
	seedPerson(t, s, "p2")
	seedAccount(t, s, store.Account{ID: "sp", OwnerID: "p2", Type: registered.AccountRRSP, Spousal: true, ContributorID: "p1"})
	seedEntry(t, s, "sp", registered.EntryContribution, 5000, date(2022, time.June, 1))
	seedEntry(t, s, "sp", registered.EntryContribution, 3000, date(2025, time.June, 1))

	// WHEN attributing a 2026 withdrawal of $10,000
	result, err := planner.New(s).SpousalAttribution(context.Background(), "sp", date(2026, time.August, 1), money(10000))

	// THEN only the 2024-2026 window contribution comes back to the
	// contributor
	require.NoError(t, err)
	assert.True(t, result.AttributedToContributor.Equal(money(3000)))
	assert.True(t, result.AttributedToOwner.Equal(money(7000)))
}

func TestPlanner_SpousalAttribution_NotSpousal(t *testing.T) {
	s := memory.New()
	seedPerson(t, s, "p1")
	seedAccount(t, s, store.Account{ID: "own", OwnerID: "p1", Type: registered.AccountRRSP})

	_, err := planner.New(s).SpousalAttribution(context.Background(), "own", date(2026, time.August, 1), money(1000))

	assert.Error(t, err)
}
