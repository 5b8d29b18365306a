// Package llm turns an aggregate report into a short plain-English
// narrative via an OpenAI-compatible chat endpoint. The narrative is
// strictly optional: callers log failures and move on.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/trackscan/trackscan/config"
	"github.com/trackscan/trackscan/models"
)

// Client is a lightweight OpenAI-compatible API client.
// It uses net/http directly — no third-party SDK needed.
type Client struct {
	httpClient *http.Client
	cfg        config.LLMConfig
}

// New creates an LLM client with the given http.Client.
// Pass nil to use a default client.
func New(cfg config.LLMConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{httpClient: httpClient, cfg: cfg}
}

// Wire types for the chat completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse keeps only the response fields the narrative needs.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// chatErrorResponse is the provider's error envelope.
type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

const narrativeSystemPrompt = `You are a web privacy analyst. You receive a JSON report from a tracking scanner that analyzed a list of sites: per-site tracking scripts, intercepted network requests with categories, cookies, fingerprinting API usage, and wallet-provider access.

Write a short plain-English narrative of the findings: which sites load trackers, which fingerprint the browser, which touch a crypto wallet provider, and anything notable in the details. A few paragraphs at most, no markdown, no bullet lists, no recommendations.`

// Summarize asks the configured model for a narrative of the report.
func (c *Client) Summarize(ctx context.Context, report *models.AggregateReport) (string, error) {
	reportJSON, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: narrativeSystemPrompt},
			{Role: "user", Content: string(reportJSON)},
		},
		Temperature: 0,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", models.NewAnalysisError(models.ErrCodeLLMFailure, "LLM request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewAnalysisError(models.ErrCodeLLMFailure, "failed to read LLM response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyLLMError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", models.NewAnalysisError(models.ErrCodeLLMFailure, "failed to parse LLM response", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", models.NewAnalysisError(models.ErrCodeLLMFailure, "LLM returned no choices", nil)
	}

	narrative := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if narrative == "" {
		return "", models.NewAnalysisError(models.ErrCodeLLMFailure, "LLM returned an empty narrative", nil)
	}

	slog.Debug("narrative generated",
		"model", c.cfg.Model,
		"promptTokens", chatResp.Usage.PromptTokens,
		"completionTokens", chatResp.Usage.CompletionTokens,
	)
	return narrative, nil
}

// endpoint joins the configured base URL with the chat completions path.
func (c *Client) endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
}

// classifyLLMError distinguishes auth and quota failures from everything
// else so callers can log them usefully.
func classifyLLMError(statusCode int, body []byte) *models.AnalysisError {
	var errResp chatErrorResponse
	msg := "LLM API error"
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		msg = errResp.Error.Message
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return models.NewAnalysisError(models.ErrCodeLLMAuthFailure, msg, nil)
	case statusCode == http.StatusTooManyRequests:
		return models.NewAnalysisError(models.ErrCodeLLMRateLimited, msg, nil)
	default:
		return models.NewAnalysisError(models.ErrCodeLLMFailure, fmt.Sprintf("LLM API returned %d: %s", statusCode, msg), nil)
	}
}
