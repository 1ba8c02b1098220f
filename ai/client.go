// Package ai generates cell content with a Gemini-style generateContent API.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 60 * time.Second
	defaultUserAgent      = "gridcalc/dev"

	systemPrompt = "You are an AI data analyst helper. You will receive a 2D array of spreadsheet data and a user request. " +
		"Return only the modified 2D array data in JSON format that matches the shape of the input. " +
		"Do not include markdown formatting or explanation."
)

var (
	ErrAPIKeyRequired = errors.New("API key required")
	ErrPromptRequired = errors.New("prompt required")
	// ErrBadResponse is returned when the answer is missing or is not a JSON 2D array.
	ErrBadResponse = errors.New("unusable response from model")
)

// Client calls the generateContent endpoint of a model. Requests are made once; failures are
// returned to the caller without retrying.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	UserAgent  string
	HTTPClient *http.Client

	requestTimeout time.Duration
}

// New creates a client for model at baseURL.
func New(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		APIKey:         apiKey,
		Model:          model,
		UserAgent:      defaultUserAgent,
		HTTPClient:     &http.Client{},
		requestTimeout: defaultRequestTimeout,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// APIError is a typed error returned by API calls, with the HTTP status code.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("model request failed %d: %s: %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("model request failed %d: %s", e.StatusCode, e.Message)
}

func parseAPIError(statusCode int, body []byte) error {
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		return &APIError{StatusCode: statusCode, Status: apiErr.Error.Status, Message: apiErr.Error.Message}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(statusCode)
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}

// endpoint returns the generateContent URL for the client's model. Gemini 2 models are served by
// the v1 API, older models by v1beta.
func (c *Client) endpoint() (string, error) {
	version := "v1beta"
	if strings.HasPrefix(c.Model, "gemini-2") {
		version = "v1"
	}
	u, err := url.Parse(c.BaseURL + "/" + version + "/models/" + url.PathEscape(c.Model) + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("building URL: %w", err)
	}
	q := u.Query()
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func buildPrompt(prompt string, data [][]any) (string, error) {
	if data == nil {
		data = [][]any{}
	}
	js, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encoding data: %w", err)
	}
	return fmt.Sprintf("%s\n\nUser request:\n%s\n\nSpreadsheet data (JSON):\n%s\n\nRespond with JSON only, matching the same 2D shape.",
		systemPrompt, prompt, js), nil
}

// Generate asks the model to transform data according to prompt and returns its answer. The
// answer is only checked to be a 2D array; callers check its shape.
func (c *Client) Generate(ctx context.Context, prompt string, data [][]any) ([][]any, error) {
	if c.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrPromptRequired
	}

	text, err := buildPrompt(prompt, data)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(generateRequest{Contents: []content{{Role: "user", Parts: []part{{Text: text}}}}})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	u, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	timeout := c.requestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, raw)
	}

	var gr generateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return parseAnswer(gr)
}

func (c *Client) userAgent() string {
	if ua := strings.TrimSpace(c.UserAgent); ua != "" {
		return ua
	}
	return defaultUserAgent
}

// parseAnswer joins the text parts of the first candidate and decodes them as a 2D array.
func parseAnswer(gr generateResponse) ([][]any, error) {
	if len(gr.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrBadResponse)
	}
	var texts []string
	for _, p := range gr.Candidates[0].Content.Parts {
		if p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(texts, "\n"))
	if text == "" {
		return nil, fmt.Errorf("%w: no response text", ErrBadResponse)
	}

	var rows []any
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		return nil, fmt.Errorf("%w: not a JSON array: %s", ErrBadResponse, text)
	}
	out := make([][]any, len(rows))
	for i, r := range rows {
		row, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d is not an array", ErrBadResponse, i)
		}
		out[i] = row
	}
	return out, nil
}
