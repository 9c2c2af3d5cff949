package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MalformedError reports an extraction payload that cannot enter the data
// model: a missing field, an out-of-range value, an unrecognized currency.
type MalformedError struct {
	Field  string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed extraction: %s %s", e.Field, e.Reason)
}

// Currencies the ledger accepts. An empty currency on a candidate is allowed
// and means "apply the configured default" downstream.
var knownCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "JPY": {},
	"CAD": {}, "AUD": {}, "CHF": {}, "INR": {},
}

func KnownCurrency(code string) bool {
	_, ok := knownCurrencies[code]
	return ok
}

// ExtractedExpense is the candidate produced from one email. Construct it
// through NewExtractedExpense; instances that passed validation are treated
// as immutable.
type ExtractedExpense struct {
	Description  string
	Amount       decimal.Decimal
	Currency     string
	Category     string
	Participants []string
	Confidence   float64
	Notes        string
}

// NewExtractedExpense validates the candidate fields and returns a defensive
// copy. Out-of-range values fail with *MalformedError, never a silent
// coercion.
func NewExtractedExpense(e ExtractedExpense) (ExtractedExpense, error) {
	e.Description = strings.TrimSpace(e.Description)
	if e.Description == "" {
		return ExtractedExpense{}, &MalformedError{Field: "description", Reason: "is empty"}
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ExtractedExpense{}, &MalformedError{Field: "amount", Reason: "must be positive"}
	}
	e.Amount = e.Amount.Round(2)
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if e.Currency != "" && !KnownCurrency(e.Currency) {
		return ExtractedExpense{}, &MalformedError{Field: "currency", Reason: fmt.Sprintf("%q is not recognized", e.Currency)}
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return ExtractedExpense{}, &MalformedError{Field: "confidence", Reason: "must be in [0,1]"}
	}
	e.Participants = append([]string(nil), e.Participants...)
	return e, nil
}

// Contact is ledger-side reference data, fetched fresh per run.
type Contact struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
}

// Name returns the display name, with single-name contacts handled.
func (c Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

type Group struct {
	ID   int64
	Name string
}

type Category struct {
	ID   int64
	Name string
}

// MatchMethod records how a raw participant string was matched.
type MatchMethod string

const (
	MatchExactEmail MatchMethod = "exact-email"
	MatchExactName  MatchMethod = "exact-name"
	MatchFuzzyName  MatchMethod = "fuzzy-name"
	MatchSelf       MatchMethod = "self"
	MatchUnresolved MatchMethod = "unresolved"
)

// ResolvedParticipant pairs a raw participant string with the contact it
// matched, or records why it stayed unresolved.
type ResolvedParticipant struct {
	Raw     string
	Contact Contact
	Method  MatchMethod
	Note    string
}

func (p ResolvedParticipant) Resolved() bool {
	return p.Method != MatchUnresolved
}

// Share is one participant's owed portion of a converted expense.
type Share struct {
	ContactID int64
	Owed      decimal.Decimal
}

// ConvertedExpense is a submission-ready expense. Shares are in resolution
// order and sum exactly to Cost. GroupID 0 means a non-group expense.
type ConvertedExpense struct {
	GroupID     int64
	Cost        decimal.Decimal
	Currency    string
	Description string
	Category    string
	PayerID     int64
	Shares      []Share
}

// SharesTotal sums the owed shares; equals Cost for any expense produced by
// the converter.
func (e ConvertedExpense) SharesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range e.Shares {
		total = total.Add(s.Owed)
	}
	return total
}

// Error kinds surfaced in an OutcomeRecord.
const (
	KindMalformedExtraction    = "MalformedExtraction"
	KindExtractionService      = "ExtractionServiceError"
	KindLowConfidence          = "LowConfidence"
	KindNoResolvedParticipants = "NoResolvedParticipants"
	KindAmbiguousParticipant   = "AmbiguousParticipant"
	KindAuthentication         = "AuthenticationError"
	KindLedgerAPI              = "LedgerApiError"
	KindConfiguration          = "ConfigurationError"
)

type OutcomeError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// OutcomeRecord is the sole externally observed result of one pipeline run.
type OutcomeRecord struct {
	Success     bool            `json:"success"`
	ExpenseID   int64           `json:"expense_id,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Confidence  float64         `json:"confidence"`
	Notes       []string        `json:"notes,omitempty"`
	Err         *OutcomeError   `json:"error,omitempty"`
}
