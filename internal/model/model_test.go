package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewExtractedExpense(t *testing.T) {
	tests := []struct {
		name      string
		in        ExtractedExpense
		wantField string
	}{
		{
			name: "valid",
			in: ExtractedExpense{
				Description:  "Dinner at Pizza Palace",
				Amount:       decimal.RequireFromString("67.50"),
				Currency:     "USD",
				Participants: []string{"John", "Sarah"},
				Confidence:   0.9,
			},
		},
		{
			name: "empty description",
			in: ExtractedExpense{
				Description: "   ",
				Amount:      decimal.RequireFromString("10"),
				Confidence:  0.9,
			},
			wantField: "description",
		},
		{
			name: "zero amount",
			in: ExtractedExpense{
				Description: "Lunch",
				Amount:      decimal.Zero,
				Confidence:  0.9,
			},
			wantField: "amount",
		},
		{
			name: "negative amount",
			in: ExtractedExpense{
				Description: "Lunch",
				Amount:      decimal.RequireFromString("-5"),
				Confidence:  0.9,
			},
			wantField: "amount",
		},
		{
			name: "unknown currency",
			in: ExtractedExpense{
				Description: "Lunch",
				Amount:      decimal.RequireFromString("10"),
				Currency:    "XYZ",
				Confidence:  0.9,
			},
			wantField: "currency",
		},
		{
			name: "empty currency allowed",
			in: ExtractedExpense{
				Description: "Lunch",
				Amount:      decimal.RequireFromString("10"),
				Confidence:  0.9,
			},
		},
		{
			name: "confidence above one",
			in: ExtractedExpense{
				Description: "Lunch",
				Amount:      decimal.RequireFromString("10"),
				Confidence:  1.2,
			},
			wantField: "confidence",
		},
		{
			name: "confidence below zero",
			in: ExtractedExpense{
				Description: "Lunch",
				Amount:      decimal.RequireFromString("10"),
				Confidence:  -0.1,
			},
			wantField: "confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewExtractedExpense(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var malformed *MalformedError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected *MalformedError, got %v (record %+v)", err, got)
			}
			if malformed.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, malformed.Field)
			}
		})
	}
}

func TestNewExtractedExpenseNormalizes(t *testing.T) {
	got, err := NewExtractedExpense(ExtractedExpense{
		Description: "Taxi",
		Amount:      decimal.RequireFromString("23.456"),
		Currency:    " usd ",
		Confidence:  0.8,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Currency != "USD" {
		t.Errorf("expected currency USD, got %q", got.Currency)
	}
	if got.Amount.String() != "23.46" {
		t.Errorf("expected amount rounded to 23.46, got %s", got.Amount)
	}
}

func TestNewExtractedExpenseCopiesParticipants(t *testing.T) {
	raw := []string{"Alice", "Bob"}
	got, err := NewExtractedExpense(ExtractedExpense{
		Description:  "Lunch",
		Amount:       decimal.RequireFromString("20"),
		Participants: raw,
		Confidence:   0.7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw[0] = "Mallory"
	if got.Participants[0] != "Alice" {
		t.Errorf("participants were not copied: %v", got.Participants)
	}
}

func TestContactName(t *testing.T) {
	tests := []struct {
		contact Contact
		want    string
	}{
		{Contact{FirstName: "John", LastName: "Doe"}, "John Doe"},
		{Contact{FirstName: "Cher"}, "Cher"},
		{Contact{LastName: "Doe"}, "Doe"},
	}
	for _, tt := range tests {
		if got := tt.contact.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestSharesTotal(t *testing.T) {
	e := ConvertedExpense{
		Cost: decimal.RequireFromString("100.00"),
		Shares: []Share{
			{ContactID: 1, Owed: decimal.RequireFromString("33.34")},
			{ContactID: 2, Owed: decimal.RequireFromString("33.33")},
			{ContactID: 3, Owed: decimal.RequireFromString("33.33")},
		},
	}
	if !e.SharesTotal().Equal(e.Cost) {
		t.Errorf("shares sum %s, want %s", e.SharesTotal(), e.Cost)
	}
}
