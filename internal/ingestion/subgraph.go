// Package ingestion pulls wallet activity and condition resolutions from a
// Goldsky-hosted Polymarket subgraph and writes them into the ledger and
// resolution stores.
package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"polymarket-pnl/internal/domain"
)

// SubgraphClient is a GraphQL client for the Goldsky subgraph indexer, used
// to query on-chain activity from the Polymarket CTF Exchange and
// ConditionalTokens contracts.
type SubgraphClient struct {
	graphqlURL string
	apiKey     string
	httpClient *http.Client
}

// NewSubgraphClient creates a new Goldsky GraphQL client.
//
// graphqlURL is the Goldsky subgraph endpoint, e.g.
// "https://api.goldsky.com/api/public/.../subgraphs/polymarket-activity/gn".
func NewSubgraphClient(graphqlURL, apiKey string) *SubgraphClient {
	return &SubgraphClient{
		graphqlURL: graphqlURL,
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchActivity queries one page of wallet activity at or after the given
// unix-second timestamp. Trades, splits, merges and redemptions come back
// flattened into ledger events; the page is full when any entity list hit
// the 'first' limit.
func (c *SubgraphClient) FetchActivity(ctx context.Context, wallet string, since int64, first int) ([]*domain.LedgerEvent, bool, error) {
	query := `
		query WalletActivity($wallet: String!, $since: BigInt!, $first: Int!) {
			transactions(
				first: $first
				orderBy: timestamp
				orderDirection: asc
				where: { user: $wallet, timestamp_gte: $since }
			) {
				id
				timestamp
				type
				market { conditionId outcomeSlotCount }
				outcomeIndex
				outcomeTokensAmount
				tradeAmount
			}
			splits(
				first: $first
				orderBy: timestamp
				orderDirection: asc
				where: { stakeholder: $wallet, timestamp_gte: $since }
			) {
				id
				timestamp
				condition { id outcomeSlotCount }
				amount
			}
			merges(
				first: $first
				orderBy: timestamp
				orderDirection: asc
				where: { stakeholder: $wallet, timestamp_gte: $since }
			) {
				id
				timestamp
				condition { id outcomeSlotCount }
				amount
			}
			redemptions(
				first: $first
				orderBy: timestamp
				orderDirection: asc
				where: { redeemer: $wallet, timestamp_gte: $since }
			) {
				id
				timestamp
				condition { id outcomeSlotCount }
				outcomeIndex
				amount
				payout
			}
		}
	`

	variables := map[string]any{
		"wallet": strings.ToLower(wallet),
		"since":  fmt.Sprintf("%d", since),
		"first":  first,
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		return nil, false, fmt.Errorf("goldsky: fetch wallet activity: %w", err)
	}

	var result struct {
		Transactions []gqlTransaction `json:"transactions"`
		Splits       []gqlTokenOp     `json:"splits"`
		Merges       []gqlTokenOp     `json:"merges"`
		Redemptions  []gqlRedemption  `json:"redemptions"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, false, fmt.Errorf("goldsky: decode wallet activity: %w", err)
	}

	var events []*domain.LedgerEvent
	for _, tx := range result.Transactions {
		events = append(events, tx.toEvent(wallet))
	}
	for _, sp := range result.Splits {
		events = append(events, sp.toEvent(wallet, domain.SourceSplit))
	}
	for _, mg := range result.Merges {
		events = append(events, mg.toEvent(wallet, domain.SourceMerge))
	}
	for _, rd := range result.Redemptions {
		events = append(events, rd.toEvent(wallet))
	}

	full := len(result.Transactions) >= first ||
		len(result.Splits) >= first ||
		len(result.Merges) >= first ||
		len(result.Redemptions) >= first

	return events, full, nil
}

// FetchResolutions queries settlement records for resolved conditions.
// Unresolved conditions are absent from the response.
func (c *SubgraphClient) FetchResolutions(ctx context.Context, conditionIDs []string) ([]*domain.Resolution, error) {
	if len(conditionIDs) == 0 {
		return nil, nil
	}

	query := `
		query Resolutions($ids: [ID!]!) {
			conditions(where: { id_in: $ids, resolutionTimestamp_not: null }) {
				id
				payoutNumerators
				payoutDenominator
				resolutionTimestamp
			}
		}
	`

	ids := make([]string, len(conditionIDs))
	for i, id := range conditionIDs {
		ids[i] = strings.ToLower(id)
	}

	respData, err := c.doQuery(ctx, query, map[string]any{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("goldsky: fetch resolutions: %w", err)
	}

	var result struct {
		Conditions []struct {
			ID                  string   `json:"id"`
			PayoutNumerators    []string `json:"payoutNumerators"`
			PayoutDenominator   string   `json:"payoutDenominator"`
			ResolutionTimestamp string   `json:"resolutionTimestamp"`
		} `json:"conditions"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("goldsky: decode resolutions: %w", err)
	}

	resolutions := make([]*domain.Resolution, 0, len(result.Conditions))
	for _, cond := range result.Conditions {
		denom := parseBigIntString(cond.PayoutDenominator)
		if denom <= 0 {
			continue
		}

		payouts := make([]int64, len(cond.PayoutNumerators))
		for i, num := range cond.PayoutNumerators {
			payouts[i] = parseBigIntString(num) * domain.PayoutScale / denom
		}

		resolutions = append(resolutions, &domain.Resolution{
			ConditionID: cond.ID,
			Payouts:     payouts,
			ResolvedAt:  parseBigIntString(cond.ResolutionTimestamp) * 1000,
		})
	}

	return resolutions, nil
}

// FetchLatestBlock returns the latest block number indexed by the Goldsky
// subgraph. Useful for monitoring indexing lag.
func (c *SubgraphClient) FetchLatestBlock(ctx context.Context) (int64, error) {
	query := `
		query LatestBlock {
			_meta {
				block {
					number
				}
			}
		}
	`

	respData, err := c.doQuery(ctx, query, nil)
	if err != nil {
		return 0, fmt.Errorf("goldsky: fetch latest block: %w", err)
	}

	var result struct {
		Meta struct {
			Block struct {
				Number int64 `json:"number"`
			} `json:"block"`
		} `json:"_meta"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return 0, fmt.Errorf("goldsky: decode latest block: %w", err)
	}

	return result.Meta.Block.Number, nil
}

// --------------------------------------------------------------------------
// Entity mapping
// --------------------------------------------------------------------------

type gqlMarket struct {
	ConditionID      string `json:"conditionId"`
	OutcomeSlotCount int    `json:"outcomeSlotCount"`
}

type gqlTransaction struct {
	ID                  string    `json:"id"`
	Timestamp           string    `json:"timestamp"`
	Type                string    `json:"type"`
	Market              gqlMarket `json:"market"`
	OutcomeIndex        string    `json:"outcomeIndex"`
	OutcomeTokensAmount string    `json:"outcomeTokensAmount"`
	TradeAmount         string    `json:"tradeAmount"`
}

// toEvent maps a CLOB fill. Subgraph amounts are 6-decimal base units,
// which is exactly the engine's micro scale.
func (t gqlTransaction) toEvent(wallet string) *domain.LedgerEvent {
	tokens := parseBigIntString(t.OutcomeTokensAmount)
	usdc := parseBigIntString(t.TradeAmount)

	kind := domain.SourceCLOBBuy
	if strings.EqualFold(t.Type, "Sell") {
		kind = domain.SourceCLOBSell
		tokens = -tokens
	} else {
		usdc = -usdc
	}

	return &domain.LedgerEvent{
		EventID:      t.ID,
		Wallet:       wallet,
		ConditionID:  t.Market.ConditionID,
		OutcomeIndex: int(parseBigIntString(t.OutcomeIndex)),
		OutcomeCount: t.Market.OutcomeSlotCount,
		Kind:         kind,
		Timestamp:    parseBigIntString(t.Timestamp) * 1000,
		TokenDelta:   tokens,
		USDCDelta:    usdc,
	}
}

type gqlCondition struct {
	ID               string `json:"id"`
	OutcomeSlotCount int    `json:"outcomeSlotCount"`
}

type gqlTokenOp struct {
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Condition gqlCondition `json:"condition"`
	Amount    string       `json:"amount"`
}

// toEvent maps a split or merge. Both carry the per-leg token amount and
// the collateral moved, sign depending on direction.
func (o gqlTokenOp) toEvent(wallet string, kind domain.SourceKind) *domain.LedgerEvent {
	amount := parseBigIntString(o.Amount)

	tokens, usdc := amount, -amount
	if kind == domain.SourceMerge {
		tokens, usdc = -amount, amount
	}

	return &domain.LedgerEvent{
		EventID:      o.ID,
		Wallet:       wallet,
		ConditionID:  o.Condition.ID,
		OutcomeIndex: domain.AllLegsIndex,
		OutcomeCount: o.Condition.OutcomeSlotCount,
		Kind:         kind,
		Timestamp:    parseBigIntString(o.Timestamp) * 1000,
		TokenDelta:   tokens,
		USDCDelta:    usdc,
	}
}

type gqlRedemption struct {
	ID           string       `json:"id"`
	Timestamp    string       `json:"timestamp"`
	Condition    gqlCondition `json:"condition"`
	OutcomeIndex string       `json:"outcomeIndex"`
	Amount       string       `json:"amount"`
	Payout       string       `json:"payout"`
}

func (r gqlRedemption) toEvent(wallet string) *domain.LedgerEvent {
	return &domain.LedgerEvent{
		EventID:      r.ID,
		Wallet:       wallet,
		ConditionID:  r.Condition.ID,
		OutcomeIndex: int(parseBigIntString(r.OutcomeIndex)),
		OutcomeCount: r.Condition.OutcomeSlotCount,
		Kind:         domain.SourceRedemption,
		Timestamp:    parseBigIntString(r.Timestamp) * 1000,
		TokenDelta:   -parseBigIntString(r.Amount),
		USDCDelta:    parseBigIntString(r.Payout),
	}
}

// parseBigIntString parses subgraph BigInt strings; malformed values map
// to 0 and are caught by the read-path validator.
func parseBigIntString(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doQuery executes a GraphQL query against the Goldsky endpoint and returns
// the raw "data" field from the response.
func (c *SubgraphClient) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphqlRequest{
		Query:     query,
		Variables: variables,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("decode graphql response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}
