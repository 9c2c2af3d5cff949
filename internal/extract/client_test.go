package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/susu3304/splitmail/internal/model"
)

func TestDecodeExtraction(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantField string
	}{
		{
			name: "well formed",
			payload: `{
				"parsed_expense": {
					"description": "Dinner at Italian Bistro",
					"amount": 125.40,
					"currency": "USD",
					"category": "Food",
					"participants": ["Alice", "Bob", "Carol"]
				},
				"confidence": 0.95,
				"notes": "Amount stated explicitly"
			}`,
		},
		{
			name:      "not json",
			payload:   `I could not find an expense in this email.`,
			wantField: "payload",
		},
		{
			name:      "missing parsed_expense",
			payload:   `{"confidence": 0.9}`,
			wantField: "parsed_expense",
		},
		{
			name:      "missing amount",
			payload:   `{"parsed_expense": {"description": "Dinner"}, "confidence": 0.9}`,
			wantField: "amount",
		},
		{
			name:      "non-numeric amount",
			payload:   `{"parsed_expense": {"description": "Dinner", "amount": "a lot"}, "confidence": 0.9}`,
			wantField: "payload",
		},
		{
			name:      "missing confidence",
			payload:   `{"parsed_expense": {"description": "Dinner", "amount": 10}}`,
			wantField: "confidence",
		},
		{
			name:      "confidence out of range",
			payload:   `{"parsed_expense": {"description": "Dinner", "amount": 10}, "confidence": 1.5}`,
			wantField: "confidence",
		},
		{
			name:      "negative amount",
			payload:   `{"parsed_expense": {"description": "Refund", "amount": -10}, "confidence": 0.9}`,
			wantField: "amount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeExtraction([]byte(tt.payload))
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Description != "Dinner at Italian Bistro" {
					t.Errorf("description = %q", got.Description)
				}
				if got.Amount.String() != "125.4" {
					t.Errorf("amount = %s", got.Amount)
				}
				if len(got.Participants) != 3 {
					t.Errorf("participants = %v", got.Participants)
				}
				if got.Confidence != 0.95 {
					t.Errorf("confidence = %v", got.Confidence)
				}
				return
			}
			var malformed *model.MalformedError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected *model.MalformedError, got %v", err)
			}
			if malformed.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, malformed.Field)
			}
		})
	}
}

func TestDecodeExtractionStripsFences(t *testing.T) {
	payload := "```json\n" + `{
		"parsed_expense": {"description": "Taxi to airport", "amount": 42.00, "category": "travel"},
		"confidence": 0.8
	}` + "\n```"

	got, err := decodeExtraction([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Description != "Taxi to airport" {
		t.Errorf("description = %q", got.Description)
	}
	if got.Amount.String() != "42" {
		t.Errorf("amount = %s", got.Amount)
	}
}

func TestBuildPromptIncludesEmail(t *testing.T) {
	prompt := buildPrompt("Dinner Receipt", "Total came to $67.50")
	for _, want := range []string{"Dinner Receipt", "$67.50", "parsed_expense", "confidence"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
