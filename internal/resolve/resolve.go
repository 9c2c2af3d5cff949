package resolve

import (
	"fmt"
	"strings"

	"github.com/susu3304/splitmail/internal/model"
)

// Resolve maps raw participant strings to known contacts. Matching per raw
// string, first match wins:
//
//  1. exact case-insensitive email match
//  2. exact case-insensitive full-name match
//  3. fuzzy match: normalized token-subset containment within the display
//     name; more than one fuzzy candidate stays unresolved with an
//     ambiguity note, never an arbitrary pick
//
// The submitting user is always part of the result: if no raw string
// resolved to self, a synthetic self entry is appended last. Output order
// follows input order. Pure function, deterministic.
func Resolve(raw []string, contacts []model.Contact, self model.Contact) []model.ResolvedParticipant {
	candidates := make([]model.Contact, 0, len(contacts)+1)
	candidates = append(candidates, contacts...)
	if !containsID(contacts, self.ID) {
		candidates = append(candidates, self)
	}

	resolved := make([]model.ResolvedParticipant, 0, len(raw)+1)
	for _, r := range raw {
		resolved = append(resolved, resolveOne(r, candidates))
	}

	selfSeen := false
	for _, p := range resolved {
		if p.Resolved() && p.Contact.ID == self.ID {
			selfSeen = true
			break
		}
	}
	if !selfSeen {
		resolved = append(resolved, model.ResolvedParticipant{
			Raw:     self.Name(),
			Contact: self,
			Method:  model.MatchSelf,
		})
	}
	return resolved
}

func resolveOne(raw string, contacts []model.Contact) model.ResolvedParticipant {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.ResolvedParticipant{Raw: raw, Method: model.MatchUnresolved, Note: "empty participant"}
	}

	for _, c := range contacts {
		if c.Email != "" && strings.EqualFold(trimmed, c.Email) {
			return model.ResolvedParticipant{Raw: raw, Contact: c, Method: model.MatchExactEmail}
		}
	}

	for _, c := range contacts {
		if strings.EqualFold(trimmed, c.Name()) {
			return model.ResolvedParticipant{Raw: raw, Contact: c, Method: model.MatchExactName}
		}
	}

	tokens := tokenize(trimmed)
	var fuzzy []model.Contact
	for _, c := range contacts {
		if len(tokens) > 0 && tokenSubset(tokens, tokenize(c.Name())) {
			fuzzy = append(fuzzy, c)
		}
	}
	switch len(fuzzy) {
	case 1:
		return model.ResolvedParticipant{Raw: raw, Contact: fuzzy[0], Method: model.MatchFuzzyName}
	case 0:
		return model.ResolvedParticipant{Raw: raw, Method: model.MatchUnresolved, Note: "no matching contact"}
	default:
		names := make([]string, len(fuzzy))
		for i, c := range fuzzy {
			names[i] = c.Name()
		}
		return model.ResolvedParticipant{
			Raw:    raw,
			Method: model.MatchUnresolved,
			Note:   fmt.Sprintf("ambiguous: matches %s", strings.Join(names, ", ")),
		}
	}
}

// tokenize lower-cases, strips punctuation and splits on whitespace.
func tokenize(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 0x80:
			// Non-ASCII letters pass through untouched.
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// tokenSubset reports whether every token in sub occurs in super.
func tokenSubset(sub, super []string) bool {
	for _, t := range sub {
		found := false
		for _, s := range super {
			if t == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsID(contacts []model.Contact, id int64) bool {
	for _, c := range contacts {
		if c.ID == id {
			return true
		}
	}
	return false
}
