/*
Package sqlite provides the SQLite-backed implementation of store.Store.

PURPOSE:
  Production persistence for persons, accounts, beneficiaries, the
  append-only entry ledger, and tax-year snapshots. The same patterns
  apply to PostgreSQL with minor dialect changes.

APPEND-ONLY ENFORCEMENT:
  No UPDATE or DELETE statements touch the entries table. Corrections are
  compensating entries.

AMOUNTS:
  Monetary values are stored as TEXT and parsed with shopspring/decimal.
  Storing them as REAL would reintroduce the float rounding the engine
  exists to avoid.

WAL MODE:
  The database is opened with WAL journaling: readers don't block, single
  writer, better crash recovery.

USAGE:
  st, err := sqlite.New("./data/ledger.db")   // or ":memory:"
  defer st.Close()

SEE ALSO:
  - store: Interface definitions
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/mapleledger/contribution-engine/registered"
	"github.com/mapleledger/contribution-engine/store"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens (and migrates) a SQLite database. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS persons (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		relation TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS beneficiaries (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		birth_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		name TEXT NOT NULL,
		tfsa_start_year INTEGER NOT NULL DEFAULT 0,
		spousal INTEGER NOT NULL DEFAULT 0,
		contributor_id TEXT,
		beneficiary_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_owner
		ON accounts(owner_id, account_type);
	CREATE INDEX IF NOT EXISTS idx_accounts_contributor
		ON accounts(contributor_id) WHERE contributor_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_accounts_beneficiary
		ON accounts(beneficiary_id) WHERE beneficiary_id IS NOT NULL;

	-- Ledger entries (append-only: no UPDATE, no DELETE)
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		entry_date TEXT NOT NULL,
		tax_year INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path: room calculation loads an account's entries in date order
	CREATE INDEX IF NOT EXISTS idx_entries_account_date
		ON entries(account_id, entry_date);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		person_id TEXT NOT NULL,
		person_relation TEXT NOT NULL DEFAULT 'self',
		account_type TEXT NOT NULL,
		tax_year INTEGER NOT NULL,
		earned_income TEXT,
		noa_deduction_limit TEXT,
		cra_room_jan1 TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_person_type
		ON snapshots(person_id, account_type, tax_year);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PERSONS
// =============================================================================

func (s *Store) SavePerson(ctx context.Context, p store.Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO persons (id, name, relation, created_at)
		VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Relation), p.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetPerson(ctx context.Context, id string) (store.Person, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, relation, created_at FROM persons WHERE id = ?`, id)
	return scanPerson(row)
}

func (s *Store) ListPersons(ctx context.Context) ([]store.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, relation, created_at FROM persons ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPerson(row scanner) (store.Person, error) {
	var p store.Person
	var relation, createdAt string
	if err := row.Scan(&p.ID, &p.Name, &relation, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return store.Person{}, store.ErrNotFound
		}
		return store.Person{}, err
	}
	p.Relation = registered.Person(relation)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// =============================================================================
// BENEFICIARIES
// =============================================================================

func (s *Store) SaveBeneficiary(ctx context.Context, b store.Beneficiary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO beneficiaries (id, name, birth_date, created_at)
		VALUES (?, ?, ?, ?)`,
		b.ID, b.Name, b.BirthDate.String(), b.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetBeneficiary(ctx context.Context, id string) (store.Beneficiary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, birth_date, created_at FROM beneficiaries WHERE id = ?`, id)
	return scanBeneficiary(row)
}

func (s *Store) ListBeneficiaries(ctx context.Context) ([]store.Beneficiary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, birth_date, created_at FROM beneficiaries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Beneficiary
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBeneficiary(row scanner) (store.Beneficiary, error) {
	var b store.Beneficiary
	var birthDate, createdAt string
	if err := row.Scan(&b.ID, &b.Name, &birthDate, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return store.Beneficiary{}, store.ErrNotFound
		}
		return store.Beneficiary{}, err
	}
	var err error
	b.BirthDate, err = registered.ParseDate(birthDate)
	if err != nil {
		return store.Beneficiary{}, fmt.Errorf("corrupt birth_date %q: %w", birthDate, err)
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return b, nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

const accountColumns = `id, owner_id, account_type, name, tfsa_start_year,
	spousal, COALESCE(contributor_id, ''), COALESCE(beneficiary_id, ''), created_at`

func (s *Store) SaveAccount(ctx context.Context, a store.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO accounts
			(id, owner_id, account_type, name, tfsa_start_year, spousal,
			 contributor_id, beneficiary_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, string(a.Type), a.Name, a.TFSAStartYear, a.Spousal,
		nullable(a.ContributorID), nullable(a.BeneficiaryID),
		a.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetAccount(ctx context.Context, id string) (store.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) ListAccounts(ctx context.Context) ([]store.Account, error) {
	return s.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
}

func (s *Store) ListAccountsByHolder(ctx context.Context, personID string, accountType registered.AccountType) ([]store.Account, error) {
	// Room holder: owner of a non-spousal account, contributor of a
	// spousal one.
	return s.queryAccounts(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE account_type = ?
		  AND ((spousal = 0 AND owner_id = ?) OR (spousal = 1 AND contributor_id = ?))
		ORDER BY id`,
		string(accountType), personID, personID)
}

func (s *Store) ListAccountsByBeneficiary(ctx context.Context, beneficiaryID string) ([]store.Account, error) {
	return s.queryAccounts(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE account_type = ? AND beneficiary_id = ?
		ORDER BY id`,
		string(registered.AccountRESP), beneficiaryID)
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]store.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAccount(row scanner) (store.Account, error) {
	var a store.Account
	var accountType, createdAt string
	if err := row.Scan(&a.ID, &a.OwnerID, &accountType, &a.Name, &a.TFSAStartYear,
		&a.Spousal, &a.ContributorID, &a.BeneficiaryID, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return store.Account{}, store.ErrNotFound
		}
		return store.Account{}, err
	}
	a.Type = registered.AccountType(accountType)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return a, nil
}

// =============================================================================
// LEDGER ENTRIES (append-only)
// =============================================================================

func (s *Store) AppendEntry(ctx context.Context, e store.EntryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (id, account_id, kind, amount, entry_date, tax_year, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AccountID, string(e.Kind), e.Amount.String(), e.Date.String(),
		e.TaxYear, e.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) EntriesByAccount(ctx context.Context, accountID string) ([]store.EntryRecord, error) {
	return s.queryEntries(ctx, `
		SELECT id, account_id, kind, amount, entry_date, tax_year, created_at
		FROM entries WHERE account_id = ?
		ORDER BY entry_date, created_at`, accountID)
}

func (s *Store) EntriesByAccounts(ctx context.Context, accountIDs []string) ([]store.EntryRecord, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	placeholders := ""
	args := make([]any, len(accountIDs))
	for i, id := range accountIDs {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args[i] = id
	}
	return s.queryEntries(ctx, `
		SELECT id, account_id, kind, amount, entry_date, tax_year, created_at
		FROM entries WHERE account_id IN (`+placeholders+`)
		ORDER BY entry_date, created_at`, args...)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]store.EntryRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.EntryRecord
	for rows.Next() {
		var e store.EntryRecord
		var kind, amount, entryDate, createdAt string
		if err := rows.Scan(&e.ID, &e.AccountID, &kind, &amount, &entryDate,
			&e.TaxYear, &createdAt); err != nil {
			return nil, err
		}
		e.Kind = registered.EntryKind(kind)
		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amount, err)
		}
		e.Date, err = registered.ParseDate(entryDate)
		if err != nil {
			return nil, fmt.Errorf("corrupt entry_date %q: %w", entryDate, err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (s *Store) SaveSnapshot(ctx context.Context, snap store.SnapshotRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO snapshots
			(id, person_id, person_relation, account_type, tax_year, earned_income,
			 noa_deduction_limit, cra_room_jan1, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.PersonID, string(snap.Snapshot.Person),
		string(snap.Snapshot.AccountType),
		snap.Snapshot.TaxYear,
		decimalString(snap.Snapshot.EarnedIncome),
		decimalString(snap.Snapshot.NOADeductionLimit),
		decimalString(snap.Snapshot.CRARoomAsOfJan1),
		snap.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) SnapshotsFor(ctx context.Context, personID string, accountType registered.AccountType) ([]store.SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, person_relation, account_type, tax_year, earned_income,
		       noa_deduction_limit, cra_room_jan1, created_at
		FROM snapshots
		WHERE person_id = ? AND account_type = ?
		ORDER BY tax_year`, personID, string(accountType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SnapshotRecord
	for rows.Next() {
		var rec store.SnapshotRecord
		var relation, acctType, createdAt string
		var earned, noa, craRoom sql.NullString
		if err := rows.Scan(&rec.ID, &rec.PersonID, &relation, &acctType,
			&rec.Snapshot.TaxYear, &earned, &noa, &craRoom, &createdAt); err != nil {
			return nil, err
		}
		rec.Snapshot.Person = registered.Person(relation)
		rec.Snapshot.AccountType = registered.AccountType(acctType)
		if rec.Snapshot.EarnedIncome, err = parseDecimal(earned); err != nil {
			return nil, err
		}
		if rec.Snapshot.NOADeductionLimit, err = parseDecimal(noa); err != nil {
			return nil, err
		}
		if rec.Snapshot.CRARoomAsOfJan1, err = parseDecimal(craRoom); err != nil {
			return nil, err
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func decimalString(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseDecimal(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, fmt.Errorf("corrupt decimal %q: %w", ns.String, err)
	}
	return &d, nil
}
