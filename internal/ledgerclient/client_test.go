package ledgerclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

func TestQueryBlocksDecodesTransfer(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/query_blocks" {
			test.Errorf("unexpected path %s", request.URL.Path)
		}
		var body struct {
			Start  uint64 `json:"start"`
			Length uint64 `json:"length"`
		}
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			test.Errorf("decode request: %v", err)
		}
		if body.Start != 42 || body.Length != 1 {
			test.Errorf("unexpected query: %+v", body)
		}
		_, _ = writer.Write([]byte(`{
			"blocks": [{
				"transaction": {
					"memo": 18446744073709551615,
					"transfer": {
						"from": "sender-address",
						"to": "receiver-address",
						"amount": {"e8s": 1000}
					}
				}
			}]
		}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		test.Fatalf("new client: %v", err)
	}
	blockRange, err := client.QueryBlocks(context.Background(), market.BlockIndex(42), 1)
	if err != nil {
		test.Fatalf("query blocks: %v", err)
	}
	if len(blockRange.Blocks) != 1 {
		test.Fatalf("expected 1 block, got %d", len(blockRange.Blocks))
	}
	transaction := blockRange.Blocks[0].Transaction
	if transaction.Memo != market.Memo(18446744073709551615) {
		test.Fatalf("memo lost precision: %d", transaction.Memo)
	}
	if transaction.Transfer == nil || transaction.Transfer.Amount.E8s != 1000 {
		test.Fatalf("transfer lost: %+v", transaction.Transfer)
	}
	if transaction.Transfer.From != "sender-address" || transaction.Transfer.To != "receiver-address" {
		test.Fatalf("addresses lost: %+v", transaction.Transfer)
	}
}

func TestQueryBlocksHandlesMintBlocks(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(`{"blocks": [{"transaction": {"memo": 7}}]}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		test.Fatalf("new client: %v", err)
	}
	blockRange, err := client.QueryBlocks(context.Background(), market.BlockIndex(7), 1)
	if err != nil {
		test.Fatalf("query blocks: %v", err)
	}
	if blockRange.Blocks[0].Transaction.Transfer != nil {
		test.Fatalf("expected no transfer, got %+v", blockRange.Blocks[0].Transaction.Transfer)
	}
}

func TestQueryBlocksSurfacesServerFailure(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		test.Fatalf("new client: %v", err)
	}
	if _, err := client.QueryBlocks(context.Background(), market.BlockIndex(1), 1); !errors.Is(err, market.ErrLedgerUnavailable) {
		test.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
}

func TestQueryBlocksSurfacesUnreachableLedger(test *testing.T) {
	test.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client, err := New(server.URL)
	if err != nil {
		test.Fatalf("new client: %v", err)
	}
	if _, err := client.QueryBlocks(context.Background(), market.BlockIndex(1), 1); !errors.Is(err, market.ErrLedgerUnavailable) {
		test.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
}

func TestNewRequiresBaseURL(test *testing.T) {
	test.Parallel()
	if _, err := New("   "); err == nil {
		test.Fatalf("expected error for empty base url")
	}
}
