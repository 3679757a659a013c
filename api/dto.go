/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Monetary fields are decimal.Decimal, which marshals as a quoted decimal
  string. Clients get exact amounts, never binary floats.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/mapleledger/contribution-engine/registered"
)

// =============================================================================
// PERSONS AND BENEFICIARIES
// =============================================================================

// PersonDTO represents a person in API responses.
type PersonDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Relation  string `json:"relation"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreatePersonRequest is the request to create a person.
type CreatePersonRequest struct {
	Name     string `json:"name"`
	Relation string `json:"relation"`
}

// BeneficiaryDTO represents an RESP beneficiary.
type BeneficiaryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateBeneficiaryRequest is the request to create a beneficiary.
type CreateBeneficiaryRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birth_date"`
}

// =============================================================================
// ACCOUNTS AND LEDGER ENTRIES
// =============================================================================

// AccountDTO represents a registered account.
type AccountDTO struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	TFSAStartYear int    `json:"tfsa_start_year,omitempty"`
	Spousal       bool   `json:"spousal,omitempty"`
	ContributorID string `json:"contributor_id,omitempty"`
	BeneficiaryID string `json:"beneficiary_id,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreateAccountRequest is the request to open an account.
type CreateAccountRequest struct {
	OwnerID       string `json:"owner_id"`
	Type          string `json:"type"`
	Name          string `json:"name"`
	TFSAStartYear int    `json:"tfsa_start_year,omitempty"`
	Spousal       bool   `json:"spousal,omitempty"`
	ContributorID string `json:"contributor_id,omitempty"`
	BeneficiaryID string `json:"beneficiary_id,omitempty"`
}

// EntryDTO represents a ledger entry.
type EntryDTO struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	TaxYear   int             `json:"tax_year"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// AppendEntryRequest records a contribution, withdrawal, or grant.
type AppendEntryRequest struct {
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`

	// TaxYear may differ from the date's year for RRSP contributions in
	// the first sixty days. Zero means the date's year.
	TaxYear int `json:"tax_year,omitempty"`
}

// SaveSnapshotRequest records a tax-authority-reported figure.
type SaveSnapshotRequest struct {
	AccountType       string           `json:"account_type"`
	TaxYear           int              `json:"tax_year"`
	EarnedIncome      *decimal.Decimal `json:"earned_income,omitempty"`
	NOADeductionLimit *decimal.Decimal `json:"noa_deduction_limit,omitempty"`
	CRARoomAsOfJan1   *decimal.Decimal `json:"cra_room_as_of_jan1,omitempty"`
}

// =============================================================================
// ROOM SUMMARIES
// =============================================================================

// TFSARoomDTO is the TFSA room summary for one account.
type TFSARoomDTO struct {
	AccountID              string          `json:"account_id"`
	AsOfYear               int             `json:"as_of_year"`
	TotalRoom              decimal.Decimal `json:"total_room"`
	TotalContributions     decimal.Decimal `json:"total_contributions"`
	RestoredWithdrawals    decimal.Decimal `json:"restored_withdrawals"`
	CurrentYearWithdrawals decimal.Decimal `json:"current_year_withdrawals"`
	RemainingRoom          decimal.Decimal `json:"remaining_room"`
	OverContribution       decimal.Decimal `json:"over_contribution"`
	Discrepancy            *DiscrepancyDTO `json:"discrepancy,omitempty"`
	Penalties              []PenaltyDTO    `json:"penalties"`
}

// RRSPRoomDTO is the pooled RRSP summary for one contributor.
type RRSPRoomDTO struct {
	PersonID           string          `json:"person_id"`
	AsOfYear           int             `json:"as_of_year"`
	AccountIDs         []string        `json:"account_ids"`
	DeductionLimit     decimal.Decimal `json:"deduction_limit"`
	RemainingRoom      decimal.Decimal `json:"remaining_room"`
	UnusedRoom         decimal.Decimal `json:"unused_room"`
	TotalContributions decimal.Decimal `json:"total_contributions"`
	OverContribution   decimal.Decimal `json:"over_contribution"`
	WithinBuffer       bool            `json:"within_buffer"`
	Penalties          []PenaltyDTO    `json:"penalties"`
}

// RESPRoomDTO is the pooled RESP summary for one beneficiary.
type RESPRoomDTO struct {
	BeneficiaryID      string          `json:"beneficiary_id"`
	AsOfYear           int             `json:"as_of_year"`
	AccountIDs         []string        `json:"account_ids"`
	TotalContributions decimal.Decimal `json:"total_contributions"`
	RemainingRoom      decimal.Decimal `json:"remaining_room"`
	OverContribution   decimal.Decimal `json:"over_contribution"`
	Grant              CESGDTO         `json:"grant"`
}

// CESGDTO is the grant entitlement picture.
type CESGDTO struct {
	Eligible            bool            `json:"eligible"`
	TotalReceived       decimal.Decimal `json:"total_received"`
	RemainingLifetime   decimal.Decimal `json:"remaining_lifetime"`
	CurrentYearReceived decimal.Decimal `json:"current_year_received"`
	CurrentYearMax      decimal.Decimal `json:"current_year_max"`
	CarryForwardRoom    decimal.Decimal `json:"carry_forward_room"`
	HasCarryForward     bool            `json:"has_carry_forward"`
}

// PenaltyDTO is one month of over-contribution penalty.
type PenaltyDTO struct {
	Year    int             `json:"year"`
	Month   int             `json:"month"`
	Excess  decimal.Decimal `json:"excess"`
	Penalty decimal.Decimal `json:"penalty"`
}

// DiscrepancyDTO compares calculated room against a reported figure.
type DiscrepancyDTO struct {
	Calculated     decimal.Decimal `json:"calculated"`
	Reported       decimal.Decimal `json:"reported"`
	Difference     decimal.Decimal `json:"difference"`
	HasDiscrepancy bool            `json:"has_discrepancy"`
}

// EstimateGrantRequest asks what grant a contribution would attract.
type EstimateGrantRequest struct {
	Contribution decimal.Decimal `json:"contribution"`
}

// GrantEstimateDTO is the projected grant.
type GrantEstimateDTO struct {
	BeneficiaryID string          `json:"beneficiary_id"`
	Contribution  decimal.Decimal `json:"contribution"`
	Grant         decimal.Decimal `json:"grant"`
}

// SpousalAttributionRequest asks how a spousal withdrawal would be taxed.
type SpousalAttributionRequest struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// SpousalAttributionDTO is the attribution split.
type SpousalAttributionDTO struct {
	AccountID               string          `json:"account_id"`
	ContributionsInWindow   decimal.Decimal `json:"contributions_in_window"`
	AttributedToContributor decimal.Decimal `json:"attributed_to_contributor"`
	AttributedToOwner       decimal.Decimal `json:"attributed_to_owner"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPenaltyDTOs(penalties []registered.MonthlyPenalty) []PenaltyDTO {
	dtos := make([]PenaltyDTO, len(penalties))
	for i, p := range penalties {
		dtos[i] = PenaltyDTO{
			Year:    p.Year,
			Month:   int(p.Month),
			Excess:  p.Excess,
			Penalty: p.Penalty,
		}
	}
	return dtos
}

func toDiscrepancyDTO(d *registered.Discrepancy) *DiscrepancyDTO {
	if d == nil {
		return nil
	}
	return &DiscrepancyDTO{
		Calculated:     d.Calculated,
		Reported:       d.Reported,
		Difference:     d.Difference,
		HasDiscrepancy: d.HasDiscrepancy,
	}
}

func toCESGDTO(g registered.CESGSummary) CESGDTO {
	return CESGDTO{
		Eligible:            g.Eligible,
		TotalReceived:       g.TotalReceived,
		RemainingLifetime:   g.RemainingLifetime,
		CurrentYearReceived: g.CurrentYearReceived,
		CurrentYearMax:      g.CurrentYearMax,
		CarryForwardRoom:    g.CarryForwardRoom,
		HasCarryForward:     g.HasCarryForward,
	}
}
