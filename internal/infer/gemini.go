package infer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/finsift/finsift/internal/common"
)

const defaultGeminiModel = "gemini-1.5-flash"

const extractionPrompt = `You are a financial transaction parser for Indian bank and UPI notification messages.
Extract the transaction details from the message below.
Return a RAW JSON object. Do NOT use markdown formatting.
Fields: "vendor" (clean merchant name), "amount" (positive number as string, no currency symbol or commas),
"date" (YYYY-MM-DD), "direction" ("DEBIT" or "CREDIT"), "category",
"payment_method", "card_last_four", "upi_reference",
"is_subscription" (boolean), "subscription_service", "confidence" (0 to 1).

Message:
%s`

// geminiClient implements Client using the Gemini API.
type geminiClient struct {
	client  *genai.Client
	limiter *rateLimiter
	model   string
	timeout time.Duration
}

// newGeminiClient creates a Gemini-backed inference client.
func newGeminiClient(ctx context.Context, cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", common.ErrMissingConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to init gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &geminiClient{
		client:  client,
		limiter: newRateLimiter(cfg.RequestsPerMinute),
		model:   model,
		timeout: timeout,
	}, nil
}

// Infer sends one message to Gemini and parses the structured response.
// A missing response within the timeout is ErrUpstreamUnavailable, never an
// indefinite hang.
func (c *geminiClient) Infer(ctx context.Context, messageText string) (*StructuredFields, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := fmt.Sprintf(extractionPrompt, messageText)
	resp, err := c.client.Models.GenerateContent(callCtx, c.model, genai.Text(prompt), nil)
	if err != nil {
		// Timeouts and transport failures both mean the upstream did not
		// answer; the caller retries or records a per-item failure.
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}

	raw, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	return parseStructuredFields(raw)
}

// Close releases the rate limiter.
func (c *geminiClient) Close() error {
	c.limiter.Close()
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: empty response", common.ErrUpstreamInvalid)
	}

	var raw strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			raw.WriteString(part.Text)
		}
	}

	if raw.Len() == 0 {
		return "", fmt.Errorf("%w: no text parts in response", common.ErrUpstreamInvalid)
	}

	return raw.String(), nil
}

// parseStructuredFields unmarshals a provider response, tolerating the
// markdown fences some models wrap around JSON.
func parseStructuredFields(raw string) (*StructuredFields, error) {
	cleaned := cleanMarkdownWrapper(raw)

	var fields StructuredFields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamInvalid, err)
	}

	return &fields, nil
}

// cleanMarkdownWrapper strips ```json fences from a model response.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
