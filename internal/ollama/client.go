// Package ollama talks to an Ollama-compatible text generation API.
//
// The collaborator is optional: every call degrades to a declared local
// fallback, and results carry an explicit flag so callers (and tests) can
// tell the fallback path from a live response.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/memcord/memcord/internal/memory"
)

// DefaultBaseURL returns the default Ollama API endpoint.
func DefaultBaseURL() string {
	return "http://localhost:11434"
}

// DefaultModel is used when the configuration names no model.
const DefaultModel = "llama3.2:1b"

// fallbackFactLength bounds the single truncated fact produced when
// extraction is unavailable.
const fallbackFactLength = 200

// Client is an HTTP client for the enhancement/extraction/ranking API.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New creates a client for the given base URL and model. Empty arguments
// fall back to the defaults.
func New(baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL()
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{},
	}
}

// EnhanceResult is the outcome of a content rewrite. Enhanced is false when
// the collaborator failed and Text is the unmodified input.
type EnhanceResult struct {
	Text     string
	Enhanced bool
}

// Fact is one extracted memory candidate.
type Fact struct {
	Content    string `json:"content"`
	Context    string `json:"context,omitempty"`
	Importance int    `json:"importance,omitempty"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Probe checks connectivity. A failure means the collaborator is absent and
// every call will use its fallback; callers treat this as non-fatal.
func (c *Client) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: probe %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: probe %s: status %d", c.baseURL, resp.StatusCode)
	}
	return nil
}

// Enhance rewrites content for clarity. On any failure the original text is
// returned with Enhanced=false.
func (c *Client) Enhance(ctx context.Context, content string) EnhanceResult {
	prompt := "Rewrite the following note so it is clear and self-contained. " +
		"Keep it short, keep every technical detail, output only the rewritten note.\n\n" + content

	response, err := c.generate(ctx, prompt)
	if err != nil || strings.TrimSpace(response) == "" {
		return EnhanceResult{Text: content, Enhanced: false}
	}
	return EnhanceResult{Text: strings.TrimSpace(response), Enhanced: true}
}

// Extract asks the collaborator for a list of memory candidates in free
// text. On any failure it falls back to a single truncated fact.
func (c *Client) Extract(ctx context.Context, text string) []Fact {
	prompt := "Extract the distinct facts worth remembering from the text below. " +
		"Respond with a JSON array of objects with fields \"content\" (string), " +
		"\"context\" (string, optional) and \"importance\" (integer 1-10, optional). " +
		"No prose, only JSON.\n\n" + text

	response, err := c.generate(ctx, prompt)
	if err == nil {
		if facts := parseFacts(response); len(facts) > 0 {
			return facts
		}
	}
	return []Fact{{Content: truncate(text, fallbackFactLength)}}
}

// Rank scores a query against candidate texts. On any failure it falls back
// to lexical Jaccard similarity.
func (c *Client) Rank(ctx context.Context, query string, candidates []string) []float64 {
	scores := make([]float64, len(candidates))
	if len(candidates) == 0 {
		return scores
	}

	var b strings.Builder
	b.WriteString("Score the relevance of each numbered text to the query on a 0.0-1.0 scale. ")
	b.WriteString("Respond with a JSON array of numbers, one per text, in order.\n\nQuery: ")
	b.WriteString(query)
	b.WriteString("\n\n")
	for i, cand := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cand)
	}

	response, err := c.generate(ctx, b.String())
	if err == nil {
		if parsed := parseScores(response, len(candidates)); parsed != nil {
			return parsed
		}
	}

	for i, cand := range candidates {
		scores[i] = memory.Jaccard(query, cand)
	}
	return scores
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama: generate: status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	return gr.Response, nil
}

// parseFacts pulls a JSON array out of a model response that may be wrapped
// in prose or code fences.
func parseFacts(response string) []Fact {
	raw := extractJSONArray(response)
	if raw == "" {
		return nil
	}
	var facts []Fact
	if err := json.Unmarshal([]byte(raw), &facts); err != nil {
		return nil
	}
	out := facts[:0]
	for _, f := range facts {
		if strings.TrimSpace(f.Content) != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseScores(response string, want int) []float64 {
	raw := extractJSONArray(response)
	if raw == "" {
		return nil
	}
	var scores []float64
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil
	}
	if len(scores) != want {
		return nil
	}
	for i, s := range scores {
		if s < 0 {
			scores[i] = 0
		} else if s > 1 {
			scores[i] = 1
		}
	}
	return scores
}

func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}

// WithHTTPClient overrides the underlying HTTP client (used by tests to
// inject a short timeout or a test server transport).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithTimeout sets a request timeout on the underlying HTTP client.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.httpClient.Timeout = d
	return c
}
