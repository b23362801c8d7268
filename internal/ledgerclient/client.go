// Package ledgerclient talks to the external ledger service over HTTP.
// The marketplace only ever asks it for block ranges; transfers are
// submitted by the counterparties themselves.
package ledgerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

const (
	defaultRequestTimeout = 10 * time.Second
	queryBlocksPath       = "/query_blocks"
)

// Client implements market.LedgerClient against a JSON HTTP endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customizes Client construction.
type Option func(client *Client)

// WithHTTPClient overrides the HTTP client used for ledger requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// New returns a Client targeting the ledger service at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("ledger base url is required")
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

type queryBlocksRequest struct {
	Start  uint64 `json:"start"`
	Length uint64 `json:"length"`
}

type queryBlocksResponse struct {
	Blocks []blockDocument `json:"blocks"`
}

type blockDocument struct {
	Transaction transactionDocument `json:"transaction"`
}

type transactionDocument struct {
	Memo     uint64            `json:"memo"`
	Transfer *transferDocument `json:"transfer"`
}

type transferDocument struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount struct {
		E8s uint64 `json:"e8s"`
	} `json:"amount"`
}

// QueryBlocks fetches length blocks starting at start. Any transport or
// protocol failure surfaces as market.ErrLedgerUnavailable so callers
// can tell an unreachable ledger apart from an unverified payment.
func (client *Client) QueryBlocks(ctx context.Context, start market.BlockIndex, length uint64) (market.BlockRange, error) {
	payload, err := json.Marshal(queryBlocksRequest{Start: uint64(start), Length: length})
	if err != nil {
		return market.BlockRange{}, fmt.Errorf("encode query: %w", err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+queryBlocksPath, bytes.NewReader(payload))
	if err != nil {
		return market.BlockRange{}, fmt.Errorf("build query: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return market.BlockRange{}, fmt.Errorf("%w: %v", market.ErrLedgerUnavailable, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return market.BlockRange{}, fmt.Errorf("%w: query_blocks returned status %d", market.ErrLedgerUnavailable, response.StatusCode)
	}

	var decoded queryBlocksResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return market.BlockRange{}, fmt.Errorf("%w: malformed query_blocks response: %v", market.ErrLedgerUnavailable, err)
	}

	blocks := make([]market.Block, 0, len(decoded.Blocks))
	for _, document := range decoded.Blocks {
		block := market.Block{
			Transaction: market.Transaction{Memo: market.Memo(document.Transaction.Memo)},
		}
		if document.Transaction.Transfer != nil {
			block.Transaction.Transfer = &market.Transfer{
				From:   market.AccountAddress(document.Transaction.Transfer.From),
				To:     market.AccountAddress(document.Transaction.Transfer.To),
				Amount: market.Tokens{E8s: document.Transaction.Transfer.Amount.E8s},
			}
		}
		blocks = append(blocks, block)
	}
	return market.BlockRange{Blocks: blocks}, nil
}
