package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapleledger/contribution-engine/registered"
	"github.com/mapleledger/contribution-engine/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPersonRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.SavePerson(ctx, store.Person{
		ID: "p1", Name: "Alex", Relation: registered.PersonSelf, CreatedAt: created,
	}))

	p, err := s.GetPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Alex", p.Name)
	assert.Equal(t, registered.PersonSelf, p.Relation)
	assert.True(t, p.CreatedAt.Equal(created))

	_, err = s.GetPerson(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.ListPersons(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBeneficiaryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveBeneficiary(ctx, store.Beneficiary{
		ID: "b1", Name: "Kid", BirthDate: registered.NewDate(2020, time.May, 10),
	}))

	b, err := s.GetBeneficiary(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "2020-05-10", b.BirthDate.String())

	_, err = s.GetBeneficiary(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountRoundTrip_SpousalFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAccount(ctx, store.Account{
		ID: "a1", OwnerID: "p2", Type: registered.AccountRRSP, Name: "Spousal RRSP",
		Spousal: true, ContributorID: "p1",
	}))
	require.NoError(t, s.SaveAccount(ctx, store.Account{
		ID: "a2", OwnerID: "p1", Type: registered.AccountRRSP, Name: "Personal RRSP",
	}))

	a, err := s.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, a.Spousal)
	assert.Equal(t, "p1", a.ContributorID)
	assert.Equal(t, "p1", a.RoomHolderID())

	a, err = s.GetAccount(ctx, "a2")
	require.NoError(t, err)
	assert.False(t, a.Spousal)
	assert.Empty(t, a.ContributorID)

	_, err = s.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListAccountsByHolder_PoolsSpousalWithPersonal(t *testing.T) {
	// GIVEN p1's personal RRSP, a spousal RRSP p1 funds, p1's TFSA, and an
	// unrelated account
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "own", OwnerID: "p1", Type: registered.AccountRRSP}))
	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "sp", OwnerID: "p2", Type: registered.AccountRRSP, Spousal: true, ContributorID: "p1"}))
	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "tfsa", OwnerID: "p1", Type: registered.AccountTFSA}))
	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "other", OwnerID: "p3", Type: registered.AccountRRSP}))

	// WHEN listing p1's RRSP pool
	accounts, err := s.ListAccountsByHolder(ctx, "p1", registered.AccountRRSP)

	// THEN the personal and spousal accounts are included, nothing else
	require.NoError(t, err)
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.ID
	}
	assert.ElementsMatch(t, []string{"own", "sp"}, ids)
}

func TestListAccountsByBeneficiary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "r1", OwnerID: "p1", Type: registered.AccountRESP, BeneficiaryID: "kid"}))
	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "r2", OwnerID: "p2", Type: registered.AccountRESP, BeneficiaryID: "kid"}))
	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "r3", OwnerID: "p1", Type: registered.AccountRESP, BeneficiaryID: "other"}))

	accounts, err := s.ListAccountsByBeneficiary(ctx, "kid")

	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}

func TestEntries_AppendAndQueryInDateOrder(t *testing.T) {
	// GIVEN entries appended out of date order across two accounts
	s := newTestStore(t)
	ctx := context.Background()

	add := func(id, account string, amount string, date registered.Date) {
		amt, err := decimal.NewFromString(amount)
		require.NoError(t, err)
		require.NoError(t, s.AppendEntry(ctx, store.EntryRecord{
			ID: id, AccountID: account, Kind: registered.EntryContribution,
			Amount: amt, Date: date, TaxYear: date.Year(),
		}))
	}
	add("e2", "a1", "2000.50", registered.NewDate(2025, time.March, 1))
	add("e1", "a1", "1000.25", registered.NewDate(2024, time.June, 1))
	add("e3", "a2", "500", registered.NewDate(2024, time.December, 1))

	// WHEN loading one account
	entries, err := s.EntriesByAccount(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e1", entries[0].ID)
	assert.True(t, entries[0].Amount.Equal(decimal.RequireFromString("1000.25")))

	// AND loading the pool across both accounts
	pooled, err := s.EntriesByAccounts(ctx, []string{"a1", "a2"})
	require.NoError(t, err)
	require.Len(t, pooled, 3)
	assert.Equal(t, "e1", pooled[0].ID)
	assert.Equal(t, "e3", pooled[1].ID)
	assert.Equal(t, "e2", pooled[2].ID)
}

func TestEntriesByAccounts_EmptyList(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.EntriesByAccounts(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSnapshotRoundTrip(t *testing.T) {
	// GIVEN snapshots with different optional figures present
	s := newTestStore(t)
	ctx := context.Background()

	income := decimal.RequireFromString("85000")
	noa := decimal.RequireFromString("30780.50")
	require.NoError(t, s.SaveSnapshot(ctx, store.SnapshotRecord{
		ID: "s1", PersonID: "p1",
		Snapshot: registered.TaxYearSnapshot{
			Person: registered.PersonSelf, AccountType: registered.AccountRRSP,
			TaxYear: 2023, EarnedIncome: &income,
		},
	}))
	require.NoError(t, s.SaveSnapshot(ctx, store.SnapshotRecord{
		ID: "s2", PersonID: "p1",
		Snapshot: registered.TaxYearSnapshot{
			Person: registered.PersonSelf, AccountType: registered.AccountRRSP,
			TaxYear: 2024, NOADeductionLimit: &noa,
		},
	}))
	require.NoError(t, s.SaveSnapshot(ctx, store.SnapshotRecord{
		ID: "s3", PersonID: "p1",
		Snapshot: registered.TaxYearSnapshot{
			Person: registered.PersonSelf, AccountType: registered.AccountTFSA,
			TaxYear: 2024,
		},
	}))

	// WHEN loading the RRSP snapshots
	snaps, err := s.SnapshotsFor(ctx, "p1", registered.AccountRRSP)

	// THEN both RRSP records come back in tax-year order with nil fields
	// preserved
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 2023, snaps[0].Snapshot.TaxYear)
	require.NotNil(t, snaps[0].Snapshot.EarnedIncome)
	assert.True(t, snaps[0].Snapshot.EarnedIncome.Equal(income))
	assert.Nil(t, snaps[0].Snapshot.NOADeductionLimit)
	require.NotNil(t, snaps[1].Snapshot.NOADeductionLimit)
	assert.True(t, snaps[1].Snapshot.NOADeductionLimit.Equal(noa))
	assert.Equal(t, registered.PersonSelf, snaps[1].Snapshot.Person)
}

func TestAmountsSurviveAsExactDecimals(t *testing.T) {
	// GIVEN an amount that is not representable in binary floating point
	s := newTestStore(t)
	ctx := context.Background()

	amt := decimal.RequireFromString("0.10")
	require.NoError(t, s.AppendEntry(ctx, store.EntryRecord{
		ID: "e1", AccountID: "a1", Kind: registered.EntryContribution,
		Amount: amt, Date: registered.NewDate(2026, time.January, 2), TaxYear: 2026,
	}))

	entries, err := s.EntriesByAccount(ctx, "a1")

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "0.1", entries[0].Amount.String())
}
