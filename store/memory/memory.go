// Package memory provides an in-memory Store implementation for tests and dev.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mapleledger/contribution-engine/registered"
	"github.com/mapleledger/contribution-engine/store"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu            sync.RWMutex
	persons       map[string]store.Person
	beneficiaries map[string]store.Beneficiary
	accounts      map[string]store.Account
	entries       map[string][]store.EntryRecord // keyed by account ID
	snapshots     []store.SnapshotRecord
}

func New() *Store {
	return &Store{
		persons:       make(map[string]store.Person),
		beneficiaries: make(map[string]store.Beneficiary),
		accounts:      make(map[string]store.Account),
		entries:       make(map[string][]store.EntryRecord),
	}
}

var _ store.Store = (*Store)(nil)

// -----------------------------------------------------------------------------
// Persons
// -----------------------------------------------------------------------------

func (s *Store) SavePerson(_ context.Context, p store.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persons[p.ID] = p
	return nil
}

func (s *Store) GetPerson(_ context.Context, id string) (store.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.persons[id]
	if !ok {
		return store.Person{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPersons(_ context.Context) ([]store.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Person, 0, len(s.persons))
	for _, p := range s.persons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -----------------------------------------------------------------------------
// Beneficiaries
// -----------------------------------------------------------------------------

func (s *Store) SaveBeneficiary(_ context.Context, b store.Beneficiary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beneficiaries[b.ID] = b
	return nil
}

func (s *Store) GetBeneficiary(_ context.Context, id string) (store.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beneficiaries[id]
	if !ok {
		return store.Beneficiary{}, store.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBeneficiaries(_ context.Context) ([]store.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Beneficiary, 0, len(s.beneficiaries))
	for _, b := range s.beneficiaries {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -----------------------------------------------------------------------------
// Accounts
// -----------------------------------------------------------------------------

func (s *Store) SaveAccount(_ context.Context, a store.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) GetAccount(_ context.Context, id string) (store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return store.Account{}, store.ErrNotFound
	}
	return a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListAccountsByHolder(_ context.Context, personID string, accountType registered.AccountType) ([]store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Account
	for _, a := range s.accounts {
		if a.Type == accountType && a.RoomHolderID() == personID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListAccountsByBeneficiary(_ context.Context, beneficiaryID string) ([]store.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Account
	for _, a := range s.accounts {
		if a.Type == registered.AccountRESP && a.BeneficiaryID == beneficiaryID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -----------------------------------------------------------------------------
// Ledger entries (append-only)
// -----------------------------------------------------------------------------

func (s *Store) AppendEntry(_ context.Context, e store.EntryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.entries[e.AccountID]
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Date.After(e.Date)
	})
	entries = append(entries, store.EntryRecord{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	s.entries[e.AccountID] = entries
	return nil
}

func (s *Store) EntriesByAccount(_ context.Context, accountID string) ([]store.EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.EntryRecord, len(s.entries[accountID]))
	copy(out, s.entries[accountID])
	return out, nil
}

func (s *Store) EntriesByAccounts(_ context.Context, accountIDs []string) ([]store.EntryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.EntryRecord
	for _, id := range accountIDs {
		out = append(out, s.entries[id]...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// -----------------------------------------------------------------------------
// Snapshots
// -----------------------------------------------------------------------------

func (s *Store) SaveSnapshot(_ context.Context, snap store.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *Store) SnapshotsFor(_ context.Context, personID string, accountType registered.AccountType) ([]store.SnapshotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.SnapshotRecord
	for _, snap := range s.snapshots {
		if snap.PersonID == personID && snap.Snapshot.AccountType == accountType {
			out = append(out, snap)
		}
	}
	return out, nil
}
