// Package extract turns brokerage confirmation screenshots into raw
// transaction records using a vision model.
//
// The model reports a confidence score per extracted field; the engine's
// confidence gate decides downstream whether the record may be committed
// without human review. This package never touches the ledger.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/etnz/folio"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const prompt = `You are a brokerage trade-confirmation reader.

Task:
- Extract the single trade from the attached image (a screenshot or photo of a
  trade confirmation, order receipt, or similar).
- Output STRICT JSON only (no comments, no extra text).
- Output a single JSON object.

The object must have these fields:
- "symbol": string, the asset ticker (e.g. "AAPL", "BTC-USD")
- "side": string, "buy" or "sell"
- "quantity": string, decimal number of units (keep full precision, e.g. "0.015")
- "price": string, decimal price per unit
- "fee": string, decimal fee or commission, "" if none is shown
- "timestamp": string, ISO format "YYYY-MM-DDTHH:MM:SSZ", "" if not shown
- "memo": string, free-form note (broker name, order id), "" if nothing useful
- "confidence": object with:
  - "fields": object mapping each of symbol, side, quantity, price to a number
    between 0 and 1, your confidence that the extracted value is correct
  - "aggregate": number between 0 and 1, your overall confidence

Rules:
- Numbers go in JSON strings, exactly as printed, decimal point, no thousands
  separators, no currency symbols.
- If a required field is unreadable, still emit it with your best guess and a
  low confidence score. Never omit a confidence score.
- Return ONLY valid raw JSON.
- Do NOT wrap the response in code fences.
- Output must begin with "{" and end with "}".`

// Extractor extracts trade records from images through a genai vision model.
type Extractor struct {
	client *genai.Client
	model  string
}

// New creates an extractor. The model name falls back to DefaultModel when
// empty. Credentials come from the environment, the genai client's usual way.
func New(ctx context.Context, model string) (*Extractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{client: client, model: model}, nil
}

// Extract reads one trade from an image. The returned record carries the
// model's per-field confidence scores and its raw output for audit; it is
// unvalidated, normalization and gating happen downstream.
func (e *Extractor) Extract(ctx context.Context, image []byte, mimeType string) (folio.RawRecord, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return folio.RawRecord{}, fmt.Errorf("generate content: %w", err)
	}
	rawText := resp.Text()
	if rawText == "" {
		return folio.RawRecord{}, fmt.Errorf("empty response from model")
	}
	return ParseRecord(rawText)
}

// ParseRecord parses the model's output into a raw record. It tolerates the
// Markdown code fences and surrounding chatter models produce despite
// instructions.
func ParseRecord(rawText string) (folio.RawRecord, error) {
	clean := cleanModelJSON(rawText)

	var parsed struct {
		Symbol     string                      `json:"symbol"`
		Side       string                      `json:"side"`
		Quantity   json.RawMessage             `json:"quantity"`
		Price      json.RawMessage             `json:"price"`
		Fee        json.RawMessage             `json:"fee"`
		Timestamp  string                      `json:"timestamp"`
		Memo       string                      `json:"memo"`
		Confidence *folio.ExtractionConfidence `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return folio.RawRecord{}, fmt.Errorf("unmarshal model output: %w\nraw response: %s", err, rawText)
	}

	rec := folio.RawRecord{
		Symbol:     parsed.Symbol,
		Side:       parsed.Side,
		Quantity:   jsonNumberString(parsed.Quantity),
		Price:      jsonNumberString(parsed.Price),
		Fee:        jsonNumberString(parsed.Fee),
		Timestamp:  parsed.Timestamp,
		Memo:       parsed.Memo,
		Confidence: parsed.Confidence,
	}
	if rec.Confidence != nil {
		rec.Confidence.Raw = rawText
	}
	return rec, nil
}

// jsonNumberString accepts numeric fields as either a JSON string or a bare
// JSON number, since models emit both.
func jsonNumberString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If there is still junk around the JSON object, keep only from the first
	// '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
