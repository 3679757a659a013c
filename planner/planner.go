/*
Package planner assembles stored records into engine inputs.

PURPOSE:
  The registered engines have strict input contracts: the TFSA engine
  wants one account's ledger, while the RRSP and RESP engines want a
  PooledLedger spanning every account that shares the contributor's or
  beneficiary's room. The planner owns that pooling, snapshot selection,
  and the not-found validation the engines deliberately do not perform.

AS-OF TIME:
  Every method takes an explicit AsOf (year and month). The engines never
  read the clock; callers that want "now" pass planner.AsOfTime(time.Now()).
  This keeps every computation reproducible.

SEE ALSO:
  - registered: The pure engines
  - store: Persistence contract
*/
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mapleledger/contribution-engine/registered"
	"github.com/mapleledger/contribution-engine/store"
)

// tfsaProgramStart is the first TFSA program year, used when an account
// does not record an explicit start year.
const tfsaProgramStart = 2009

// AsOf pins a calculation to a year and month.
type AsOf struct {
	Year  int
	Month time.Month
}

// AsOfTime derives an AsOf from a wall-clock instant.
func AsOfTime(t time.Time) AsOf {
	return AsOf{Year: t.Year(), Month: t.Month()}
}

// Planner composes store queries with the registered engines.
type Planner struct {
	Store store.Store
}

func New(s store.Store) *Planner {
	return &Planner{Store: s}
}

// =============================================================================
// TFSA
// =============================================================================

// TFSAReport is a TFSA room summary for one account.
type TFSAReport struct {
	AccountID string
	AsOfYear  int
	Room      registered.TFSARoom

	// Discrepancy compares our from-scratch arithmetic against the latest
	// CRA-reported figure, when one exists.
	Discrepancy *registered.Discrepancy

	Penalties []registered.MonthlyPenalty
}

// TFSASummary computes room, penalties, and the CRA discrepancy check for
// one TFSA account.
func (p *Planner) TFSASummary(ctx context.Context, accountID string, asOf AsOf) (TFSAReport, error) {
	input, err := p.tfsaInput(ctx, accountID, asOf)
	if err != nil {
		return TFSAReport{}, err
	}

	report := TFSAReport{
		AccountID: accountID,
		AsOfYear:  asOf.Year,
		Room:      registered.CalculateTFSARoom(input),
		Penalties: registered.TFSAPenaltySchedule(input, asOf.Month),
	}
	report.Discrepancy = p.tfsaDiscrepancy(input)
	return report, nil
}

// TFSAPenaltySchedule returns only the month-by-month penalty walk.
func (p *Planner) TFSAPenaltySchedule(ctx context.Context, accountID string, asOf AsOf) ([]registered.MonthlyPenalty, error) {
	input, err := p.tfsaInput(ctx, accountID, asOf)
	if err != nil {
		return nil, err
	}
	return registered.TFSAPenaltySchedule(input, asOf.Month), nil
}

func (p *Planner) tfsaInput(ctx context.Context, accountID string, asOf AsOf) (registered.TFSAInput, error) {
	account, err := p.Store.GetAccount(ctx, accountID)
	if err != nil {
		return registered.TFSAInput{}, fmt.Errorf("account %s: %w", accountID, err)
	}
	if account.Type != registered.AccountTFSA {
		return registered.TFSAInput{}, fmt.Errorf("account %s is %s, not TFSA", accountID, account.Type)
	}

	records, err := p.Store.EntriesByAccount(ctx, accountID)
	if err != nil {
		return registered.TFSAInput{}, err
	}
	snapshots, err := p.snapshotsFor(ctx, account.OwnerID, registered.AccountTFSA)
	if err != nil {
		return registered.TFSAInput{}, err
	}

	startYear := account.TFSAStartYear
	if startYear == 0 {
		startYear = tfsaProgramStart
	}

	return registered.TFSAInput{
		StartYear:   startYear,
		CurrentYear: asOf.Year,
		Entries:     registered.AccountLedger(toLedgerEntries(records)),
		Snapshots:   snapshots,
	}, nil
}

// tfsaDiscrepancy replays the ledger from scratch up to the latest CRA
// sync point and compares against the reported figure.
func (p *Planner) tfsaDiscrepancy(input registered.TFSAInput) *registered.Discrepancy {
	var sync *registered.TaxYearSnapshot
	for i, s := range input.Snapshots {
		if s.CRARoomAsOfJan1 == nil {
			continue
		}
		if sync == nil || s.TaxYear > sync.TaxYear {
			sync = &input.Snapshots[i]
		}
	}
	if sync == nil {
		return nil
	}

	// Room as of January 1 of the sync year: from-scratch calculation over
	// entries dated in earlier years only.
	var before registered.AccountLedger
	for _, e := range input.Entries {
		if e.Date.Year() < sync.TaxYear {
			before = append(before, e)
		}
	}
	calculated := registered.CalculateTFSARoom(registered.TFSAInput{
		StartYear:   input.StartYear,
		CurrentYear: sync.TaxYear,
		Entries:     before,
	}).RemainingRoom

	d := registered.CheckDiscrepancy(calculated, *sync.CRARoomAsOfJan1)
	return &d
}

// =============================================================================
// RRSP
// =============================================================================

// RRSPReport is the pooled RRSP summary for one contributor.
type RRSPReport struct {
	PersonID   string
	AsOfYear   int
	AccountIDs []string
	Room       registered.RRSPRoom
	Penalties  []registered.MonthlyPenalty
}

// RRSPSummary pools entries across every account drawing on the person's
// deduction room and computes the limit and penalty schedule.
func (p *Planner) RRSPSummary(ctx context.Context, personID string, asOf AsOf) (RRSPReport, error) {
	input, accountIDs, err := p.rrspInput(ctx, personID, asOf)
	if err != nil {
		return RRSPReport{}, err
	}

	return RRSPReport{
		PersonID:   personID,
		AsOfYear:   asOf.Year,
		AccountIDs: accountIDs,
		Room:       registered.CalculateRRSPRoom(input),
		Penalties:  registered.RRSPPenaltySchedule(input, asOf.Month),
	}, nil
}

// RRSPPenaltySchedule returns only the month-by-month penalty walk.
func (p *Planner) RRSPPenaltySchedule(ctx context.Context, personID string, asOf AsOf) ([]registered.MonthlyPenalty, error) {
	input, _, err := p.rrspInput(ctx, personID, asOf)
	if err != nil {
		return nil, err
	}
	return registered.RRSPPenaltySchedule(input, asOf.Month), nil
}

func (p *Planner) rrspInput(ctx context.Context, personID string, asOf AsOf) (registered.RRSPInput, []string, error) {
	if _, err := p.Store.GetPerson(ctx, personID); err != nil {
		return registered.RRSPInput{}, nil, fmt.Errorf("person %s: %w", personID, err)
	}

	accounts, err := p.Store.ListAccountsByHolder(ctx, personID, registered.AccountRRSP)
	if err != nil {
		return registered.RRSPInput{}, nil, err
	}
	accountIDs := make([]string, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
	}

	records, err := p.Store.EntriesByAccounts(ctx, accountIDs)
	if err != nil {
		return registered.RRSPInput{}, nil, err
	}
	snapshots, err := p.snapshotsFor(ctx, personID, registered.AccountRRSP)
	if err != nil {
		return registered.RRSPInput{}, nil, err
	}

	return registered.RRSPInput{
		CurrentYear: asOf.Year,
		Entries:     registered.PooledLedger(toLedgerEntries(records)),
		Snapshots:   snapshots,
	}, accountIDs, nil
}

// =============================================================================
// RESP
// =============================================================================

// RESPReport is the pooled RESP summary for one beneficiary.
type RESPReport struct {
	BeneficiaryID string
	AsOfYear      int
	AccountIDs    []string
	Summary       registered.RESPSummary
}

// RESPSummary pools entries across the beneficiary's RESP accounts and
// computes lifetime room and grant entitlement.
func (p *Planner) RESPSummary(ctx context.Context, beneficiaryID string, asOf AsOf) (RESPReport, error) {
	input, accountIDs, err := p.respInput(ctx, beneficiaryID, asOf)
	if err != nil {
		return RESPReport{}, err
	}

	return RESPReport{
		BeneficiaryID: beneficiaryID,
		AsOfYear:      asOf.Year,
		AccountIDs:    accountIDs,
		Summary:       registered.CalculateRESPRoom(input),
	}, nil
}

// EstimateGrant projects the CESG a hypothetical contribution would
// attract for the beneficiary.
func (p *Planner) EstimateGrant(ctx context.Context, beneficiaryID string, contribution decimal.Decimal, asOf AsOf) (decimal.Decimal, error) {
	input, _, err := p.respInput(ctx, beneficiaryID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	summary := registered.CalculateRESPRoom(input)
	return registered.EstimateCESG(contribution, summary.CESG), nil
}

func (p *Planner) respInput(ctx context.Context, beneficiaryID string, asOf AsOf) (registered.RESPInput, []string, error) {
	beneficiary, err := p.Store.GetBeneficiary(ctx, beneficiaryID)
	if err != nil {
		return registered.RESPInput{}, nil, fmt.Errorf("beneficiary %s: %w", beneficiaryID, err)
	}

	accounts, err := p.Store.ListAccountsByBeneficiary(ctx, beneficiaryID)
	if err != nil {
		return registered.RESPInput{}, nil, err
	}
	accountIDs := make([]string, len(accounts))
	for i, a := range accounts {
		accountIDs[i] = a.ID
	}

	records, err := p.Store.EntriesByAccounts(ctx, accountIDs)
	if err != nil {
		return registered.RESPInput{}, nil, err
	}

	return registered.RESPInput{
		BeneficiaryBirthDate: beneficiary.BirthDate,
		CurrentYear:          asOf.Year,
		Entries:              registered.PooledLedger(toLedgerEntries(records)),
	}, accountIDs, nil
}

// =============================================================================
// SPOUSAL ATTRIBUTION
// =============================================================================

// SpousalAttribution splits a withdrawal from a spousal account between
// contributor and owner using the account's own contribution history.
func (p *Planner) SpousalAttribution(ctx context.Context, accountID string, withdrawalDate registered.Date, amount decimal.Decimal) (registered.SpousalAttribution, error) {
	account, err := p.Store.GetAccount(ctx, accountID)
	if err != nil {
		return registered.SpousalAttribution{}, fmt.Errorf("account %s: %w", accountID, err)
	}
	if !account.Spousal {
		return registered.SpousalAttribution{}, fmt.Errorf("account %s is not a spousal account", accountID)
	}

	records, err := p.Store.EntriesByAccount(ctx, accountID)
	if err != nil {
		return registered.SpousalAttribution{}, err
	}

	return registered.AttributeSpousalWithdrawal(
		withdrawalDate, amount,
		registered.AccountLedger(toLedgerEntries(records)),
	), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (p *Planner) snapshotsFor(ctx context.Context, personID string, accountType registered.AccountType) ([]registered.TaxYearSnapshot, error) {
	records, err := p.Store.SnapshotsFor(ctx, personID, accountType)
	if err != nil {
		return nil, err
	}
	snapshots := make([]registered.TaxYearSnapshot, len(records))
	for i, r := range records {
		snapshots[i] = r.Snapshot
	}
	return snapshots, nil
}

func toLedgerEntries(records []store.EntryRecord) []registered.LedgerEntry {
	entries := make([]registered.LedgerEntry, len(records))
	for i, r := range records {
		entries[i] = r.LedgerEntry()
	}
	return entries
}
