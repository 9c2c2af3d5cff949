package resolve

import (
	"reflect"
	"strings"
	"testing"

	"github.com/susu3304/splitmail/internal/model"
)

var (
	self = model.Contact{ID: 1, FirstName: "Mike", LastName: "Chen", Email: "mike@example.com"}

	contacts = []model.Contact{
		{ID: 2, FirstName: "John", LastName: "Doe", Email: "john.doe@example.com"},
		{ID: 3, FirstName: "John", LastName: "Smith", Email: "jsmith@example.com"},
		{ID: 4, FirstName: "Alice", LastName: "Nakamura", Email: "alice@example.com"},
		{ID: 5, FirstName: "Bob", LastName: "O'Brien"},
	}
)

func TestResolveMatching(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantID     int64
		wantMethod model.MatchMethod
	}{
		{"exact email", "john.doe@example.com", 2, model.MatchExactEmail},
		{"exact email case-insensitive", "JSmith@Example.COM", 3, model.MatchExactEmail},
		{"exact full name", "Alice Nakamura", 4, model.MatchExactName},
		{"exact full name case-insensitive", "john doe", 2, model.MatchExactName},
		{"fuzzy first name unique", "Alice", 4, model.MatchFuzzyName},
		{"fuzzy last name unique", "Smith", 3, model.MatchFuzzyName},
		{"fuzzy punctuation stripped", "o'brien", 5, model.MatchFuzzyName},
		{"fuzzy ambiguous", "John", 0, model.MatchUnresolved},
		{"no match", "Zelda", 0, model.MatchUnresolved},
		{"blank", "   ", 0, model.MatchUnresolved},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve([]string{tt.raw}, contacts, self)
			// raw entry plus the implicit self
			if len(got) != 2 {
				t.Fatalf("expected 2 resolved participants, got %d", len(got))
			}
			p := got[0]
			if p.Method != tt.wantMethod {
				t.Errorf("method = %s, want %s", p.Method, tt.wantMethod)
			}
			if tt.wantID != 0 && p.Contact.ID != tt.wantID {
				t.Errorf("contact id = %d, want %d", p.Contact.ID, tt.wantID)
			}
			if last := got[len(got)-1]; last.Method != model.MatchSelf || last.Contact.ID != self.ID {
				t.Errorf("expected implicit self appended last, got %+v", last)
			}
		})
	}
}

func TestResolveAmbiguityNote(t *testing.T) {
	got := Resolve([]string{"John"}, contacts, self)
	p := got[0]
	if p.Resolved() {
		t.Fatalf("ambiguous match must stay unresolved, got %+v", p)
	}
	if !strings.Contains(p.Note, "John Doe") || !strings.Contains(p.Note, "John Smith") {
		t.Errorf("ambiguity note should name candidates, got %q", p.Note)
	}
}

func TestResolveSelfNotDuplicated(t *testing.T) {
	got := Resolve([]string{"mike@example.com", "Alice"}, contacts, self)
	if len(got) != 2 {
		t.Fatalf("expected 2 participants, got %d: %+v", len(got), got)
	}
	if got[0].Contact.ID != self.ID || got[0].Method != model.MatchExactEmail {
		t.Errorf("expected self matched by email, got %+v", got[0])
	}
}

func TestResolveSelfByName(t *testing.T) {
	got := Resolve([]string{"Mike"}, contacts, self)
	if len(got) != 1 {
		t.Fatalf("expected 1 participant, got %d: %+v", len(got), got)
	}
	if got[0].Contact.ID != self.ID {
		t.Errorf("expected self matched by name, got %+v", got[0])
	}
}

func TestResolvePreservesOrder(t *testing.T) {
	got := Resolve([]string{"Alice", "Zelda", "Smith"}, contacts, self)
	wantRaw := []string{"Alice", "Zelda", "Smith", self.Name()}
	raws := make([]string, len(got))
	for i, p := range got {
		raws[i] = p.Raw
	}
	if !reflect.DeepEqual(raws, wantRaw) {
		t.Errorf("order = %v, want %v", raws, wantRaw)
	}
}

func TestResolveDeterministic(t *testing.T) {
	raw := []string{"Alice", "John", "jsmith@example.com", "nobody"}
	first := Resolve(raw, contacts, self)
	second := Resolve(raw, contacts, self)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolution is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestResolveEmptyInputYieldsSelfOnly(t *testing.T) {
	got := Resolve(nil, contacts, self)
	if len(got) != 1 || got[0].Method != model.MatchSelf {
		t.Fatalf("expected only the implicit self, got %+v", got)
	}
}
