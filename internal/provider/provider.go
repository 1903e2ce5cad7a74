// Package provider dispatches prompts to external LLM provider endpoints.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Endpoint is the static address and credential used to reach one provider.
type Endpoint struct {
	URL    string
	APIKey string
}

// Registry maps an uppercased model display name to its provider endpoint.
type Registry map[string]Endpoint

// Lookup finds the endpoint configured for a model's display name.
func (r Registry) Lookup(modelName string) (Endpoint, bool) {
	ep, ok := r[strings.ToUpper(modelName)]
	return ep, ok
}

// Client sends prompts to provider endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client. A zero timeout means requests are bounded only by their context.
func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// NewClientWithHTTP creates a Client around an existing http.Client.
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// Complete posts the prompt to the endpoint and returns the extracted response text.
func (c *Client) Complete(ctx context.Context, ep Endpoint, prompt string) (string, error) {
	b, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+ep.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider error %d: %s", resp.StatusCode, truncate(string(body), 512))
	}

	return ExtractText(body), nil
}

// ExtractText pulls the response text out of a provider payload. The text of the
// first entry in "choices" wins, then a flat "response" field, then "".
// A non-string "response" is returned as its JSON encoding.
func ExtractText(body []byte) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	if raw, ok := parsed["choices"]; ok {
		var choices []struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(raw, &choices) == nil && len(choices) > 0 && choices[0].Text != "" {
			return choices[0].Text
		}
	}

	if raw, ok := parsed["response"]; ok {
		return responseValue(raw)
	}
	return ""
}

// responseValue returns a string "response" as is and any other truthy JSON value
// in its compact encoding. null, false, 0 and "" yield "".
func responseValue(raw json.RawMessage) string {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return ""
	}
	switch v := compact.String(); v {
	case "null", "false", "0":
		return ""
	default:
		var n float64
		if json.Unmarshal(raw, &n) == nil && n == 0 {
			return ""
		}
		return v
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
