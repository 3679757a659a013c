/*
Package store defines the persistence contract between the application and
the contribution engines.

PURPOSE:
  The registered package computes over plain ledger entries and snapshots;
  this package owns where those come from. It defines the stored record
  types (persons, accounts, beneficiaries, ledger entries, tax-year
  snapshots) and the Store interface implemented by SQLite for production
  and by an in-memory store for tests.

APPEND-ONLY LEDGER:
  Ledger entries are append-only: no Update, no Delete. A mistaken entry is
  corrected by recording a compensating entry, never by editing history.
  Room is always recomputed from the full entry list, so there is no stored
  balance to drift out of sync.

POOLING QUERIES:
  RRSP room is shared across every account drawing on one contributor's
  room, and RESP room across all of a beneficiary's accounts. The Store
  exposes the queries the planner needs to assemble those pools
  (ListAccountsByHolder, ListAccountsByBeneficiary, EntriesByAccounts).

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for tests and dev

SEE ALSO:
  - planner: Pools records and invokes the engines
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mapleledger/contribution-engine/registered"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// =============================================================================
// RECORD TYPES
// =============================================================================

// Person is an individual whose contribution room is tracked.
type Person struct {
	ID        string
	Name      string
	Relation  registered.Person
	CreatedAt time.Time
}

// Beneficiary is the child an RESP is held for. All RESP accounts naming
// the same beneficiary share one lifetime limit and grant entitlement.
type Beneficiary struct {
	ID        string
	Name      string
	BirthDate registered.Date
	CreatedAt time.Time
}

// Account is a registered account held at an institution.
type Account struct {
	ID      string
	OwnerID string
	Type    registered.AccountType
	Name    string

	// TFSAStartYear is the first year the owner accrued TFSA room. Zero
	// means the program's first year (2009).
	TFSAStartYear int

	// Spousal marks an RRSP funded by the owner's spouse. ContributorID is
	// the person whose deduction room the contributions consume.
	Spousal       bool
	ContributorID string

	// BeneficiaryID links an RESP to its beneficiary.
	BeneficiaryID string

	CreatedAt time.Time
}

// RoomHolderID returns the person whose contribution room this account
// draws on: the contributor for a spousal account, the owner otherwise.
func (a Account) RoomHolderID() string {
	if a.Spousal && a.ContributorID != "" {
		return a.ContributorID
	}
	return a.OwnerID
}

// EntryRecord is a persisted ledger entry.
type EntryRecord struct {
	ID        string
	AccountID string
	Kind      registered.EntryKind
	Amount    decimal.Decimal
	Date      registered.Date
	TaxYear   int
	CreatedAt time.Time
}

// LedgerEntry converts the record to the engine representation.
func (r EntryRecord) LedgerEntry() registered.LedgerEntry {
	return registered.LedgerEntry{
		Kind:      r.Kind,
		Amount:    r.Amount,
		Date:      r.Date,
		TaxYear:   r.TaxYear,
		AccountID: r.AccountID,
	}
}

// SnapshotRecord is a persisted tax-year snapshot for one person.
type SnapshotRecord struct {
	ID        string
	PersonID  string
	Snapshot  registered.TaxYearSnapshot
	CreatedAt time.Time
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store persists persons, accounts, beneficiaries, ledger entries, and
// snapshots.
//
// The entry ledger is APPEND-ONLY: there is no update or delete operation,
// and implementations must not add one. Corrections are compensating
// entries.
type Store interface {
	SavePerson(ctx context.Context, p Person) error
	GetPerson(ctx context.Context, id string) (Person, error)
	ListPersons(ctx context.Context) ([]Person, error)

	SaveBeneficiary(ctx context.Context, b Beneficiary) error
	GetBeneficiary(ctx context.Context, id string) (Beneficiary, error)
	ListBeneficiaries(ctx context.Context) ([]Beneficiary, error)

	SaveAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, id string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)

	// ListAccountsByHolder returns accounts of the given type whose room
	// belongs to the person: owned personal accounts plus spousal accounts
	// they contribute to.
	ListAccountsByHolder(ctx context.Context, personID string, accountType registered.AccountType) ([]Account, error)

	// ListAccountsByBeneficiary returns the RESP accounts naming the
	// beneficiary.
	ListAccountsByBeneficiary(ctx context.Context, beneficiaryID string) ([]Account, error)

	// AppendEntry records a ledger entry. Append-only.
	AppendEntry(ctx context.Context, e EntryRecord) error

	EntriesByAccount(ctx context.Context, accountID string) ([]EntryRecord, error)
	EntriesByAccounts(ctx context.Context, accountIDs []string) ([]EntryRecord, error)

	SaveSnapshot(ctx context.Context, s SnapshotRecord) error

	// SnapshotsFor returns the person's snapshots for one account type.
	SnapshotsFor(ctx context.Context, personID string, accountType registered.AccountType) ([]SnapshotRecord, error)
}
