package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/susu3304/splitmail/internal/ledger"
	"github.com/susu3304/splitmail/internal/model"
	"github.com/susu3304/splitmail/internal/pipeline"
)

type processRequest struct {
	Subject       string  `json:"subject"`
	Body          string  `json:"body"`
	GroupID       int64   `json:"group_id,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

func (a *API) handleProcess(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Subject == "" || req.Body == "" {
		http.Error(w, "subject and body are required", http.StatusBadRequest)
		return
	}

	outcome := a.runner.Run(r.Context(), claims.AccessToken, pipeline.Request{
		Subject:       req.Subject,
		Body:          req.Body,
		GroupID:       req.GroupID,
		MinConfidence: req.MinConfidence,
	})

	w.Header().Set("Content-Type", "application/json")
	// The outcome record is the response either way; HTTP status only
	// distinguishes submitted from not.
	if !outcome.Success {
		w.WriteHeader(statusForOutcome(outcome))
	}
	json.NewEncoder(w).Encode(outcome)
}

func statusForOutcome(outcome model.OutcomeRecord) int {
	if outcome.Err == nil {
		return http.StatusOK
	}
	switch outcome.Err.Kind {
	case model.KindLowConfidence, model.KindNoResolvedParticipants, model.KindMalformedExtraction:
		return http.StatusUnprocessableEntity
	case model.KindAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func (a *API) handleListFriends(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	friends, err := a.ledger.Friends(r.Context(), claims.AccessToken)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	type friendView struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email,omitempty"`
	}
	views := make([]friendView, len(friends))
	for i, f := range friends {
		views[i] = friendView{ID: f.ID, Name: f.Name(), Email: f.Email}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"friends": views})
}

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	groups, err := a.ledger.Groups(r.Context(), claims.AccessToken)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"groups": groups})
}

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	expenses, err := a.ledger.Expenses(r.Context(), claims.AccessToken, limit)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"expenses": expenses})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	user, err := a.ledger.CurrentUser(r.Context(), claims.AccessToken)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":    user.ID,
		"name":  user.Name(),
		"email": user.Email,
	})
}

func writeLedgerError(w http.ResponseWriter, err error) {
	var authErr *ledger.AuthError
	if errors.As(err, &authErr) {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	http.Error(w, fmt.Sprintf("ledger request failed: %v", err), http.StatusBadGateway)
}
