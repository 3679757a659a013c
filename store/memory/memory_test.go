package memory

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

func TestNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetPerson(ctx, "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetBeneficiary(ctx, "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetAccount(ctx, "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntriesKeptInDateOrder(t *testing.T) {
	// GIVEN entries appended out of date order
	s := New()
	ctx := context.Background()

	add := func(id string, date registered.Date) {
		require.NoError(t, s.AppendEntry(ctx, store.EntryRecord{
			ID: id, AccountID: "a1", Kind: registered.EntryContribution,
			Amount: decimal.NewFromInt(100), Date: date, TaxYear: date.Year(),
		}))
	}
	add("e3", registered.NewDate(2026, time.March, 1))
	add("e1", registered.NewDate(2024, time.June, 1))
	add("e2", registered.NewDate(2025, time.January, 15))

	// WHEN reading them back
	entries, err := s.EntriesByAccount(ctx, "a1")

	// THEN they are sorted by date
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e1", entries[0].ID)
	assert.Equal(t, "e2", entries[1].ID)
	assert.Equal(t, "e3", entries[2].ID)
}

func TestListAccountsByHolder_SpousalPooling(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "own", OwnerID: "p1", Type: registered.AccountRRSP}))
	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "sp", OwnerID: "p2", Type: registered.AccountRRSP, Spousal: true, ContributorID: "p1"}))
	require.NoError(t, s.SaveAccount(ctx, store.Account{ID: "owned-by-spouse", OwnerID: "p2", Type: registered.AccountRRSP}))

	accounts, err := s.ListAccountsByHolder(ctx, "p1", registered.AccountRRSP)

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "own", accounts[0].ID)
	assert.Equal(t, "sp", accounts[1].ID)
}

func TestSnapshotsFilteredByPersonAndType(t *testing.T) {
	s := New()
	ctx := context.Background()

	save := func(id, personID string, accountType registered.AccountType) {
		require.NoError(t, s.SaveSnapshot(ctx, store.SnapshotRecord{
			ID: id, PersonID: personID,
			Snapshot: registered.TaxYearSnapshot{AccountType: accountType, TaxYear: 2024},
		}))
	}
	save("s1", "p1", registered.AccountRRSP)
	save("s2", "p1", registered.AccountTFSA)
	save("s3", "p2", registered.AccountRRSP)

	snaps, err := s.SnapshotsFor(ctx, "p1", registered.AccountRRSP)

	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "s1", snaps[0].ID)
}
