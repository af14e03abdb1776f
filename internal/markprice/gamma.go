package markprice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"polymarket-pnl/internal/fixedpoint"
)

// GammaClient fetches outcome prices from the Polymarket Gamma REST API.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a Gamma API client.
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ Source = (*GammaClient)(nil)

// gammaMarket is the subset of the Gamma market payload the engine needs.
// OutcomePrices is a JSON-encoded string array ("[\"0.62\", \"0.38\"]").
type gammaMarket struct {
	ConditionID   string `json:"conditionId"`
	OutcomePrices string `json:"outcomePrices"`
	Closed        bool   `json:"closed"`
}

// Price implements Source: it looks the condition up by ID and returns the
// price of the requested leg. Markets Gamma does not know, closed markets,
// and unparseable prices all return ok=false.
func (g *GammaClient) Price(ctx context.Context, conditionID string, outcomeIndex int) (int64, bool, error) {
	params := url.Values{}
	params.Set("condition_ids", conditionID)

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return 0, false, fmt.Errorf("gamma: get market %s: %w", conditionID, err)
	}

	var markets []gammaMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		return 0, false, fmt.Errorf("gamma: decode markets: %w", err)
	}

	for _, m := range markets {
		if m.ConditionID != conditionID || m.Closed {
			continue
		}
		price, ok := parseOutcomePrice(m.OutcomePrices, outcomeIndex)
		if ok {
			return price, true, nil
		}
	}
	return 0, false, nil
}

// parseOutcomePrice extracts one leg's price from the encoded price array
// and converts it to micro-USD.
func parseOutcomePrice(encoded string, outcomeIndex int) (int64, bool) {
	var prices []string
	if err := json.Unmarshal([]byte(encoded), &prices); err != nil {
		return 0, false
	}
	if outcomeIndex < 0 || outcomeIndex >= len(prices) {
		return 0, false
	}
	f, err := strconv.ParseFloat(prices[outcomeIndex], 64)
	if err != nil {
		return 0, false
	}
	micro, ok := fixedpoint.FromFloat(f)
	if !ok || micro <= 0 {
		return 0, false
	}
	return micro, true
}

func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
