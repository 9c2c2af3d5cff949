package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"github.com/susu3304/splitmail/internal/model"
)

// ServiceError is a transport or auth failure talking to the extraction
// service, as opposed to a payload the service returned but we cannot use.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

const systemPrompt = "You are a financial expense parser. Return only valid JSON."

func buildPrompt(subject, body string) string {
	return fmt.Sprintf(`You are an expert at parsing email content to extract expense information for financial tracking.

Parse the following email and extract expense information in JSON format:

EMAIL SUBJECT: %s
EMAIL BODY: %s

Extract the following information and return it as a JSON object:
{
    "parsed_expense": {
        "description": "Brief description of the expense",
        "amount": float (the total amount),
        "currency": "3-letter currency code (default: USD)",
        "category": "expense category if apparent (e.g., 'Food', 'Transportation', 'Entertainment')",
        "participants": ["list", "of", "participant", "names", "or", "emails"]
    },
    "confidence": float (0.0 to 1.0 - how confident you are in the parsing),
    "notes": "Any additional notes about the parsing or ambiguities"
}

Guidelines:
1. Extract the main expense amount (ignore taxes, tips unless they're part of the total)
2. If multiple people are mentioned, add them to participants
3. Look for keywords like "split", "share", "owe", "paid" to identify participants
4. If the email is clearly not about an expense, set confidence to 0.0
5. Be conservative with confidence - only use high confidence (>0.8) if information is very clear

Return ONLY the JSON object, no additional text.`, subject, body)
}

// Extract sends one email to the extraction service and returns a validated
// candidate. One call, one structured outcome; no retries.
func (c *Client) Extract(ctx context.Context, subject, body string) (model.ExtractedExpense, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.1,
		MaxTokens:   1000,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(subject, body)},
		},
	})
	if err != nil {
		return model.ExtractedExpense{}, &ServiceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return model.ExtractedExpense{}, &model.MalformedError{Field: "payload", Reason: "empty completion"}
	}
	return decodeExtraction([]byte(resp.Choices[0].Message.Content))
}

type payload struct {
	ParsedExpense *payloadExpense `json:"parsed_expense"`
	Confidence    *float64        `json:"confidence"`
	Notes         string          `json:"notes"`
}

type payloadExpense struct {
	Description  string       `json:"description"`
	Amount       *json.Number `json:"amount"`
	Currency     string       `json:"currency"`
	Category     string       `json:"category"`
	Participants []string     `json:"participants"`
}

// decodeExtraction turns the service's raw completion into a validated
// ExtractedExpense. The service is untrusted: any hole in the payload is a
// *model.MalformedError, never a propagated decode error.
func decodeExtraction(data []byte) (model.ExtractedExpense, error) {
	var p payload
	if err := json.Unmarshal(stripFences(data), &p); err != nil {
		return model.ExtractedExpense{}, &model.MalformedError{Field: "payload", Reason: "is not valid JSON"}
	}
	if p.ParsedExpense == nil {
		return model.ExtractedExpense{}, &model.MalformedError{Field: "parsed_expense", Reason: "is missing"}
	}
	if p.ParsedExpense.Amount == nil {
		return model.ExtractedExpense{}, &model.MalformedError{Field: "amount", Reason: "is missing"}
	}
	amount, err := decimal.NewFromString(p.ParsedExpense.Amount.String())
	if err != nil {
		return model.ExtractedExpense{}, &model.MalformedError{Field: "amount", Reason: "is not numeric"}
	}
	if p.Confidence == nil {
		return model.ExtractedExpense{}, &model.MalformedError{Field: "confidence", Reason: "is missing"}
	}
	return model.NewExtractedExpense(model.ExtractedExpense{
		Description:  p.ParsedExpense.Description,
		Amount:       amount,
		Currency:     p.ParsedExpense.Currency,
		Category:     p.ParsedExpense.Category,
		Participants: p.ParsedExpense.Participants,
		Confidence:   *p.Confidence,
		Notes:        p.Notes,
	})
}

// stripFences unwraps a markdown code fence the model sometimes puts around
// the JSON despite the prompt.
func stripFences(data []byte) []byte {
	s := strings.TrimSpace(string(data))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return []byte(strings.TrimSpace(s))
}
