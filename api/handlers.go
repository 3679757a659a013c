/*
handlers.go - HTTP API handlers for the contribution room service

PURPOSE:
  Exposes the contribution engines via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the planner and
  store.

ENDPOINTS:
  Persons:
    GET    /api/persons                      List persons
    POST   /api/persons                      Create person
    GET    /api/persons/{id}                 Get person
    POST   /api/persons/{id}/snapshots       Record a tax-year snapshot
    GET    /api/persons/{id}/rrsp            Pooled RRSP room summary

  Beneficiaries:
    GET    /api/beneficiaries                List beneficiaries
    POST   /api/beneficiaries                Create beneficiary
    GET    /api/beneficiaries/{id}           Get beneficiary
    GET    /api/beneficiaries/{id}/resp      Pooled RESP room and grant
    POST   /api/beneficiaries/{id}/grant-estimate  Project CESG on a contribution

  Accounts:
    GET    /api/accounts                     List accounts
    POST   /api/accounts                     Open account
    GET    /api/accounts/{id}                Get account
    GET    /api/accounts/{id}/entries        Ledger history
    POST   /api/accounts/{id}/entries        Append ledger entry
    GET    /api/accounts/{id}/tfsa           TFSA room summary
    POST   /api/accounts/{id}/spousal-attribution  Withdrawal attribution

AS-OF TIME:
  Room endpoints accept ?year= and ?month= query parameters. Absent, the
  handler's clock supplies the current year and month. Tests pin the clock.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mapleledger/contribution-engine/planner"
	"github.com/mapleledger/contribution-engine/registered"
	"github.com/mapleledger/contribution-engine/store"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   store.Store
	Planner *planner.Planner

	// Now supplies the default as-of instant. Tests pin it.
	Now func() time.Time
}

// NewHandler creates a new handler over the given store.
func NewHandler(s store.Store) *Handler {
	return &Handler{
		Store:   s,
		Planner: planner.New(s),
		Now:     time.Now,
	}
}

// asOf resolves the evaluation year and month from query parameters,
// falling back to the handler clock.
func (h *Handler) asOf(r *http.Request) (planner.AsOf, error) {
	out := planner.AsOfTime(h.Now())
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return planner.AsOf{}, errors.New("invalid year parameter")
		}
		out.Year = year
	}
	if v := r.URL.Query().Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return planner.AsOf{}, errors.New("invalid month parameter")
		}
		out.Month = time.Month(month)
	}
	return out, nil
}

// =============================================================================
// PERSON HANDLERS
// =============================================================================

// ListPersons returns all persons.
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.Store.ListPersons(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list persons", err)
		return
	}

	dtos := make([]PersonDTO, len(persons))
	for i, p := range persons {
		dtos[i] = toPersonDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePerson creates a new person.
func (h *Handler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	relation := registered.Person(req.Relation)
	if relation == "" {
		relation = registered.PersonSelf
	}
	if relation != registered.PersonSelf && relation != registered.PersonSpouse {
		writeError(w, http.StatusBadRequest, "relation must be self or spouse", nil)
		return
	}

	p := store.Person{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Relation:  relation,
		CreatedAt: h.Now(),
	}
	if err := h.Store.SavePerson(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create person", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonDTO(p))
}

// GetPerson returns a single person.
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetPerson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "Person", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonDTO(p))
}

// SaveSnapshot records a tax-authority-reported figure for a person.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "id")
	p, err := h.Store.GetPerson(r.Context(), personID)
	if err != nil {
		writeStoreError(w, "Person", err)
		return
	}

	var req SaveSnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	accountType := registered.AccountType(req.AccountType)
	switch accountType {
	case registered.AccountTFSA, registered.AccountRRSP, registered.AccountRESP:
	default:
		writeError(w, http.StatusBadRequest, "account_type must be TFSA, RRSP, or RESP", nil)
		return
	}
	if req.TaxYear == 0 {
		writeError(w, http.StatusBadRequest, "tax_year is required", nil)
		return
	}

	rec := store.SnapshotRecord{
		ID:       uuid.NewString(),
		PersonID: personID,
		Snapshot: registered.TaxYearSnapshot{
			Person:            p.Relation,
			AccountType:       accountType,
			TaxYear:           req.TaxYear,
			EarnedIncome:      req.EarnedIncome,
			NOADeductionLimit: req.NOADeductionLimit,
			CRARoomAsOfJan1:   req.CRARoomAsOfJan1,
		},
		CreatedAt: h.Now(),
	}
	if err := h.Store.SaveSnapshot(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save snapshot", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": rec.ID})
}

// GetRRSPRoom returns the pooled RRSP room summary for a person.
func (h *Handler) GetRRSPRoom(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	report, err := h.Planner.RRSPSummary(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeStoreError(w, "Person", err)
		return
	}

	writeJSON(w, http.StatusOK, RRSPRoomDTO{
		PersonID:           report.PersonID,
		AsOfYear:           report.AsOfYear,
		AccountIDs:         report.AccountIDs,
		DeductionLimit:     report.Room.DeductionLimit,
		RemainingRoom:      report.Room.RemainingRoom,
		UnusedRoom:         report.Room.UnusedRoom,
		TotalContributions: report.Room.TotalContributions,
		OverContribution:   report.Room.OverContribution,
		WithinBuffer:       report.Room.WithinBuffer,
		Penalties:          toPenaltyDTOs(report.Penalties),
	})
}

// =============================================================================
// BENEFICIARY HANDLERS
// =============================================================================

// ListBeneficiaries returns all beneficiaries.
func (h *Handler) ListBeneficiaries(w http.ResponseWriter, r *http.Request) {
	beneficiaries, err := h.Store.ListBeneficiaries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list beneficiaries", err)
		return
	}

	dtos := make([]BeneficiaryDTO, len(beneficiaries))
	for i, b := range beneficiaries {
		dtos[i] = toBeneficiaryDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBeneficiary creates a new beneficiary.
func (h *Handler) CreateBeneficiary(w http.ResponseWriter, r *http.Request) {
	var req CreateBeneficiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	birthDate, err := registered.ParseDate(req.BirthDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid birth_date format (use YYYY-MM-DD)", err)
		return
	}

	b := store.Beneficiary{
		ID:        uuid.NewString(),
		Name:      req.Name,
		BirthDate: birthDate,
		CreatedAt: h.Now(),
	}
	if err := h.Store.SaveBeneficiary(r.Context(), b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create beneficiary", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBeneficiaryDTO(b))
}

// GetBeneficiary returns a single beneficiary.
func (h *Handler) GetBeneficiary(w http.ResponseWriter, r *http.Request) {
	b, err := h.Store.GetBeneficiary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "Beneficiary", err)
		return
	}
	writeJSON(w, http.StatusOK, toBeneficiaryDTO(b))
}

// GetRESPRoom returns the pooled RESP room and grant summary.
func (h *Handler) GetRESPRoom(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	report, err := h.Planner.RESPSummary(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeStoreError(w, "Beneficiary", err)
		return
	}

	writeJSON(w, http.StatusOK, RESPRoomDTO{
		BeneficiaryID:      report.BeneficiaryID,
		AsOfYear:           report.AsOfYear,
		AccountIDs:         report.AccountIDs,
		TotalContributions: report.Summary.TotalContributions,
		RemainingRoom:      report.Summary.RemainingRoom,
		OverContribution:   report.Summary.OverContribution,
		Grant:              toCESGDTO(report.Summary.CESG),
	})
}

// EstimateGrant projects the CESG a contribution would attract.
func (h *Handler) EstimateGrant(w http.ResponseWriter, r *http.Request) {
	beneficiaryID := chi.URLParam(r, "id")

	var req EstimateGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !req.Contribution.IsPositive() {
		writeError(w, http.StatusBadRequest, "contribution must be positive", nil)
		return
	}
	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	grant, err := h.Planner.EstimateGrant(r.Context(), beneficiaryID, req.Contribution, asOf)
	if err != nil {
		writeStoreError(w, "Beneficiary", err)
		return
	}

	writeJSON(w, http.StatusOK, GrantEstimateDTO{
		BeneficiaryID: beneficiaryID,
		Contribution:  req.Contribution,
		Grant:         grant,
	})
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns all accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list accounts", err)
		return
	}

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAccount opens a registered account.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	accountType := registered.AccountType(req.Type)
	switch accountType {
	case registered.AccountTFSA, registered.AccountRRSP, registered.AccountRESP:
	default:
		writeError(w, http.StatusBadRequest, "type must be TFSA, RRSP, or RESP", nil)
		return
	}
	if _, err := h.Store.GetPerson(r.Context(), req.OwnerID); err != nil {
		writeStoreError(w, "Owner", err)
		return
	}
	if req.Spousal {
		if accountType != registered.AccountRRSP {
			writeError(w, http.StatusBadRequest, "only RRSP accounts can be spousal", nil)
			return
		}
		if _, err := h.Store.GetPerson(r.Context(), req.ContributorID); err != nil {
			writeStoreError(w, "Contributor", err)
			return
		}
	}
	if accountType == registered.AccountRESP {
		if _, err := h.Store.GetBeneficiary(r.Context(), req.BeneficiaryID); err != nil {
			writeStoreError(w, "Beneficiary", err)
			return
		}
	}

	a := store.Account{
		ID:            uuid.NewString(),
		OwnerID:       req.OwnerID,
		Type:          accountType,
		Name:          req.Name,
		TFSAStartYear: req.TFSAStartYear,
		Spousal:       req.Spousal,
		ContributorID: req.ContributorID,
		BeneficiaryID: req.BeneficiaryID,
		CreatedAt:     h.Now(),
	}
	if err := h.Store.SaveAccount(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(a))
}

// GetAccount returns a single account.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, "Account", err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(a))
}

// ListEntries returns the account's ledger history.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if _, err := h.Store.GetAccount(r.Context(), accountID); err != nil {
		writeStoreError(w, "Account", err)
		return
	}

	entries, err := h.Store.EntriesByAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entries", err)
		return
	}

	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AppendEntry records a ledger entry against an account. The ledger is
// append-only; corrections are compensating entries.
func (h *Handler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	account, err := h.Store.GetAccount(r.Context(), accountID)
	if err != nil {
		writeStoreError(w, "Account", err)
		return
	}

	var req AppendEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind := registered.EntryKind(req.Kind)
	switch kind {
	case registered.EntryContribution, registered.EntryWithdrawal:
	case registered.EntryGrant:
		if account.Type != registered.AccountRESP {
			writeError(w, http.StatusBadRequest, "grant entries apply to RESP accounts only", nil)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "kind must be contribution, withdrawal, or grant", nil)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}
	date, err := registered.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	taxYear := req.TaxYear
	if taxYear == 0 {
		taxYear = date.Year()
	}

	rec := store.EntryRecord{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    req.Amount,
		Date:      date,
		TaxYear:   taxYear,
		CreatedAt: h.Now(),
	}
	if err := h.Store.AppendEntry(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to append entry", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(rec))
}

// GetTFSARoom returns the TFSA room summary for an account.
func (h *Handler) GetTFSARoom(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	report, err := h.Planner.TFSASummary(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Account not found", nil)
		} else {
			writeError(w, http.StatusBadRequest, "Cannot compute TFSA room", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, TFSARoomDTO{
		AccountID:              report.AccountID,
		AsOfYear:               report.AsOfYear,
		TotalRoom:              report.Room.TotalRoom,
		TotalContributions:     report.Room.TotalContributions,
		RestoredWithdrawals:    report.Room.RestoredWithdrawals,
		CurrentYearWithdrawals: report.Room.CurrentYearWithdrawals,
		RemainingRoom:          report.Room.RemainingRoom,
		OverContribution:       report.Room.OverContribution,
		Discrepancy:            toDiscrepancyDTO(report.Discrepancy),
		Penalties:              toPenaltyDTOs(report.Penalties),
	})
}

// SpousalAttribution reports how a withdrawal from a spousal account would
// be attributed for tax.
func (h *Handler) SpousalAttribution(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	var req SpousalAttributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := registered.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if !req.Amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}

	result, err := h.Planner.SpousalAttribution(r.Context(), accountID, date, req.Amount)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Account not found", nil)
		} else {
			writeError(w, http.StatusBadRequest, "Cannot attribute withdrawal", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, SpousalAttributionDTO{
		AccountID:               accountID,
		ContributionsInWindow:   result.ContributionsInWindow,
		AttributedToContributor: result.AttributedToContributor,
		AttributedToOwner:       result.AttributedToOwner,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func toPersonDTO(p store.Person) PersonDTO {
	return PersonDTO{
		ID:        p.ID,
		Name:      p.Name,
		Relation:  string(p.Relation),
		CreatedAt: formatTime(p.CreatedAt),
	}
}

func toBeneficiaryDTO(b store.Beneficiary) BeneficiaryDTO {
	return BeneficiaryDTO{
		ID:        b.ID,
		Name:      b.Name,
		BirthDate: b.BirthDate.String(),
		CreatedAt: formatTime(b.CreatedAt),
	}
}

func toAccountDTO(a store.Account) AccountDTO {
	return AccountDTO{
		ID:            a.ID,
		OwnerID:       a.OwnerID,
		Type:          string(a.Type),
		Name:          a.Name,
		TFSAStartYear: a.TFSAStartYear,
		Spousal:       a.Spousal,
		ContributorID: a.ContributorID,
		BeneficiaryID: a.BeneficiaryID,
		CreatedAt:     formatTime(a.CreatedAt),
	}
}

func toEntryDTO(e store.EntryRecord) EntryDTO {
	return EntryDTO{
		ID:        e.ID,
		AccountID: e.AccountID,
		Kind:      string(e.Kind),
		Amount:    e.Amount,
		Date:      e.Date.String(),
		TaxYear:   e.TaxYear,
		CreatedAt: formatTime(e.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps store.ErrNotFound to 404 and everything else to 500.
func writeStoreError(w http.ResponseWriter, what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found", nil)
		return
	}
	writeError(w, http.StatusInternalServerError, "Failed to load "+what, err)
}
