package convert

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/susu3304/splitmail/internal/model"
)

// LowConfidenceError rejects a candidate below the confidence threshold.
// This is a hard gate; nothing below it is ever submitted.
type LowConfidenceError struct {
	Actual   float64
	Required float64
}

func (e *LowConfidenceError) Error() string {
	return fmt.Sprintf("extraction confidence %.2f is below the required %.2f", e.Actual, e.Required)
}

// NoParticipantsError rejects a candidate with zero resolved participants.
type NoParticipantsError struct{}

func (e *NoParticipantsError) Error() string {
	return "no participants could be resolved to known contacts"
}

// DefaultMaxDropFraction is the fraction of unresolved participants above
// which the conversion annotates the outcome.
const DefaultMaxDropFraction = 0.5

type Options struct {
	MinConfidence   float64
	DefaultCurrency string
	// GroupID is the caller-supplied group; DefaultGroupID applies when the
	// caller passes none. Both zero makes a non-group expense.
	GroupID        int64
	DefaultGroupID int64
	// PayerID is the authenticated user, who fronts the full cost.
	PayerID int64
	// MaxDropFraction defaults to DefaultMaxDropFraction when zero.
	MaxDropFraction float64
}

// Convert validates the candidate and produces a submission-ready expense
// with an equal split, or a typed rejection. Warning annotations that do not
// block submission are returned as notes. Pure transformation, no I/O.
func Convert(candidate model.ExtractedExpense, resolved []model.ResolvedParticipant, opts Options) (model.ConvertedExpense, []string, error) {
	if candidate.Confidence < opts.MinConfidence {
		return model.ConvertedExpense{}, nil, &LowConfidenceError{
			Actual:   candidate.Confidence,
			Required: opts.MinConfidence,
		}
	}

	var notes []string
	kept := make([]model.ResolvedParticipant, 0, len(resolved))
	dropped := 0
	for _, p := range resolved {
		if !p.Resolved() {
			dropped++
			notes = append(notes, fmt.Sprintf("participant %q unresolved: %s", p.Raw, p.Note))
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return model.ConvertedExpense{}, nil, &NoParticipantsError{}
	}

	maxDrop := opts.MaxDropFraction
	if maxDrop == 0 {
		maxDrop = DefaultMaxDropFraction
	}
	if len(resolved) > 0 && float64(dropped)/float64(len(resolved)) > maxDrop {
		notes = append(notes, fmt.Sprintf("dropped %d of %d participants as unresolved", dropped, len(resolved)))
	}

	currency := candidate.Currency
	if currency == "" {
		currency = opts.DefaultCurrency
	}

	groupID := opts.GroupID
	if groupID == 0 {
		groupID = opts.DefaultGroupID
	}

	shares, err := equalSplit(candidate.Amount, kept)
	if err != nil {
		return model.ConvertedExpense{}, nil, err
	}

	return model.ConvertedExpense{
		GroupID:     groupID,
		Cost:        candidate.Amount,
		Currency:    currency,
		Description: candidate.Description,
		Category:    resolveCategory(candidate.Category),
		PayerID:     opts.PayerID,
		Shares:      shares,
	}, notes, nil
}

// equalSplit divides cost evenly across the participants: each share is
// round(cost/n, 2) and the rounding remainder lands on the first participant
// in resolution order, so the shares reconcile to the cost exactly.
func equalSplit(cost decimal.Decimal, participants []model.ResolvedParticipant) ([]model.Share, error) {
	n := int64(len(participants))
	share := cost.Div(decimal.NewFromInt(n)).Round(2)
	remainder := cost.Sub(share.Mul(decimal.NewFromInt(n)))

	shares := make([]model.Share, len(participants))
	for i, p := range participants {
		owed := share
		if i == 0 {
			owed = owed.Add(remainder)
		}
		if owed.LessThanOrEqual(decimal.Zero) {
			return nil, &model.MalformedError{
				Field:  "amount",
				Reason: fmt.Sprintf("%s cannot be split %d ways", cost, n),
			}
		}
		shares[i] = model.Share{ContactID: p.Contact.ID, Owed: owed}
	}
	return shares, nil
}

// Closed set of ledger-recognized categories. Unknown or absent free-text
// categories never block conversion.
const (
	CategoryFood           = "Food"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryUtilities      = "Utilities"
	CategoryGeneral        = "General"
)

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{CategoryFood, []string{"food", "dinner", "lunch", "breakfast", "restaurant", "pizza", "coffee", "drinks", "groceries", "bar"}},
	{CategoryTransportation, []string{"transportation", "uber", "lyft", "taxi", "ride", "flight", "train", "bus", "gas", "parking"}},
	{CategoryEntertainment, []string{"entertainment", "movie", "concert", "ticket", "game", "show"}},
	{CategoryUtilities, []string{"utilities", "rent", "electric", "internet", "water", "phone"}},
}

func resolveCategory(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return CategoryGeneral
	}
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lowered, kw) {
				return group.category
			}
		}
	}
	return CategoryGeneral
}
