package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/susu3304/splitmail/internal/convert"
	"github.com/susu3304/splitmail/internal/extract"
	"github.com/susu3304/splitmail/internal/ledger"
	"github.com/susu3304/splitmail/internal/model"
	"github.com/susu3304/splitmail/internal/resolve"
)

// State of a pipeline run. Transitions are strictly sequential; any gate
// failure is terminal for the run.
type State string

const (
	StateReceived  State = "received"
	StateExtracted State = "extracted"
	StateValidated State = "validated"
	StateResolved  State = "resolved"
	StateConverted State = "converted"
	StateSubmitted State = "submitted"
	StateRejected  State = "rejected"
	StateFailed    State = "failed"
)

// Extractor turns one email into a validated candidate.
type Extractor interface {
	Extract(ctx context.Context, subject, body string) (model.ExtractedExpense, error)
}

// Ledger is the subset of the ledger client a run needs.
type Ledger interface {
	CurrentUser(ctx context.Context, token string) (model.Contact, error)
	Friends(ctx context.Context, token string) ([]model.Contact, error)
	FindCategoryID(ctx context.Context, token, name string) (int64, error)
	CreateExpense(ctx context.Context, token string, e model.ConvertedExpense, categoryID int64) (int64, error)
}

type Defaults struct {
	Currency      string
	GroupID       int64
	MinConfidence float64
}

type Runner struct {
	extractor Extractor
	ledger    Ledger
	defaults  Defaults
	log       *zap.Logger
}

func NewRunner(extractor Extractor, lg Ledger, defaults Defaults, log *zap.Logger) *Runner {
	return &Runner{extractor: extractor, ledger: lg, defaults: defaults, log: log}
}

// Request is one email to process. Zero GroupID and MinConfidence fall back
// to the runner defaults.
type Request struct {
	Subject       string
	Body          string
	GroupID       int64
	MinConfidence float64
}

// Run processes one email end to end: extract, gate on confidence, resolve
// participants against a fresh contact snapshot, convert, submit. Exactly
// one OutcomeRecord comes out; a partially-formed expense never reaches the
// ledger. No step is retried.
func (r *Runner) Run(ctx context.Context, token string, req Request) model.OutcomeRecord {
	state := StateReceived
	r.log.Info("processing email", zap.String("subject", truncate(req.Subject, 50)))

	minConfidence := req.MinConfidence
	if minConfidence <= 0 {
		minConfidence = r.defaults.MinConfidence
	}

	candidate, err := r.extractor.Extract(ctx, req.Subject, req.Body)
	if err != nil {
		return r.fail(StateFailed, failureRecord(req, err, model.KindExtractionService))
	}
	state = StateExtracted
	r.log.Info("extracted candidate",
		zap.String("description", candidate.Description),
		zap.String("amount", candidate.Amount.String()),
		zap.Float64("confidence", candidate.Confidence))

	// Confidence gate. Rejecting here keeps low-confidence candidates from
	// triggering any ledger call at all.
	if candidate.Confidence < minConfidence {
		err := &convert.LowConfidenceError{Actual: candidate.Confidence, Required: minConfidence}
		return r.fail(StateRejected, rejectionRecord(candidate, err))
	}
	state = StateValidated

	self, err := r.ledger.CurrentUser(ctx, token)
	if err != nil {
		return r.fail(StateFailed, failureRecordFrom(candidate, err, model.KindLedgerAPI))
	}
	friends, err := r.ledger.Friends(ctx, token)
	if err != nil {
		return r.fail(StateFailed, failureRecordFrom(candidate, err, model.KindLedgerAPI))
	}

	resolved := resolve.Resolve(candidate.Participants, friends, self)
	state = StateResolved

	converted, notes, err := convert.Convert(candidate, resolved, convert.Options{
		MinConfidence:   minConfidence,
		DefaultCurrency: r.defaults.Currency,
		GroupID:         req.GroupID,
		DefaultGroupID:  r.defaults.GroupID,
		PayerID:         self.ID,
	})
	if err != nil {
		return r.fail(StateRejected, rejectionRecord(candidate, err))
	}
	state = StateConverted

	// A category the ledger cannot map never blocks submission.
	categoryID, err := r.ledger.FindCategoryID(ctx, token, converted.Category)
	if err != nil {
		r.log.Warn("category lookup failed, submitting without category", zap.Error(err))
		categoryID = 0
	}

	expenseID, err := r.ledger.CreateExpense(ctx, token, converted, categoryID)
	if err != nil {
		return r.fail(StateFailed, failureRecordFrom(candidate, err, model.KindLedgerAPI))
	}
	state = StateSubmitted
	r.log.Info("expense submitted",
		zap.Int64("expense_id", expenseID),
		zap.String("state", string(state)))

	if candidate.Notes != "" {
		notes = append([]string{candidate.Notes}, notes...)
	}
	return model.OutcomeRecord{
		Success:     true,
		ExpenseID:   expenseID,
		Description: converted.Description,
		Amount:      converted.Cost,
		Currency:    converted.Currency,
		Confidence:  candidate.Confidence,
		Notes:       notes,
	}
}

func (r *Runner) fail(state State, record model.OutcomeRecord) model.OutcomeRecord {
	r.log.Warn("run ended without submission",
		zap.String("state", string(state)),
		zap.String("kind", record.Err.Kind),
		zap.String("message", record.Err.Message))
	return record
}

// failureRecord builds an outcome for failures before a candidate exists;
// only the subject can be echoed.
func failureRecord(req Request, err error, fallbackKind string) model.OutcomeRecord {
	return model.OutcomeRecord{
		Description: truncate(req.Subject, 100),
		Err:         classify(err, fallbackKind),
	}
}

func failureRecordFrom(candidate model.ExtractedExpense, err error, fallbackKind string) model.OutcomeRecord {
	return model.OutcomeRecord{
		Description: candidate.Description,
		Amount:      candidate.Amount,
		Currency:    candidate.Currency,
		Confidence:  candidate.Confidence,
		Err:         classify(err, fallbackKind),
	}
}

func rejectionRecord(candidate model.ExtractedExpense, err error) model.OutcomeRecord {
	return failureRecordFrom(candidate, err, model.KindMalformedExtraction)
}

// classify maps a typed failure to its outcome kind. Raw provider errors
// never surface uninterpreted.
func classify(err error, fallbackKind string) *model.OutcomeError {
	kind := fallbackKind

	var malformed *model.MalformedError
	var service *extract.ServiceError
	var low *convert.LowConfidenceError
	var noParticipants *convert.NoParticipantsError
	var auth *ledger.AuthError
	var api *ledger.APIError

	switch {
	case errors.As(err, &malformed):
		kind = model.KindMalformedExtraction
	case errors.As(err, &service):
		kind = model.KindExtractionService
	case errors.As(err, &low):
		kind = model.KindLowConfidence
	case errors.As(err, &noParticipants):
		kind = model.KindNoResolvedParticipants
	case errors.As(err, &auth):
		kind = model.KindAuthentication
	case errors.As(err, &api):
		kind = model.KindLedgerAPI
	}

	return &model.OutcomeError{Kind: kind, Message: err.Error()}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
