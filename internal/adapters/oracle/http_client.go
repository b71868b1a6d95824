package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/contracts"
	"github.com/viralforge/mesh/services/data-ai/M62-creative-scoring-engine/internal/domain"
)

// HTTPClient talks to the external feature oracle over JSON. Any transport
// error, non-200 status or schema violation surfaces as ErrOracleUnavailable;
// the caller decides the fallback.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewHTTPClient(cfg Config) *HTTPClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}
}

type suggestResponse struct {
	Suggestions []domain.FeatureSuggestion `json:"suggestions"`
}

func (c *HTTPClient) SuggestFeatures(ctx context.Context, traits domain.CreativeTraits, result domain.OutcomeResult, reason domain.DiscoveryReason) ([]domain.FeatureSuggestion, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: no oracle endpoint configured", domain.ErrOracleUnavailable)
	}
	content, err := json.Marshal(traits)
	if err != nil {
		return nil, fmt.Errorf("%w: encode traits: %v", domain.ErrOracleUnavailable, err)
	}
	results, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%w: encode results: %v", domain.ErrOracleUnavailable, err)
	}
	body, err := json.Marshal(contracts.OracleSuggestRequest{
		AdContent: content,
		AdResults: results,
		Reason:    string(reason),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrOracleUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/features/suggest", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: oracle returned status %d", domain.ErrOracleUnavailable, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrOracleUnavailable, err)
	}
	var decoded suggestResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrOracleUnavailable, err)
	}
	for _, suggestion := range decoded.Suggestions {
		if !suggestion.Valid() {
			return nil, fmt.Errorf("%w: suggestion %q fails schema validation", domain.ErrOracleUnavailable, suggestion.Name)
		}
	}
	return decoded.Suggestions, nil
}
