package market

import "context"

// LedgerClient queries the external blockchain-style ledger service.
type LedgerClient interface {
	// QueryBlocks returns length blocks starting at start. A failed query is a
	// hard error; an empty result is not.
	QueryBlocks(ctx context.Context, start BlockIndex, length uint64) (BlockRange, error)
}

// BlockRange is a slice of consecutive ledger blocks.
type BlockRange struct {
	Blocks []Block
}

// Block holds a single ledger transaction.
type Block struct {
	Transaction Transaction
}

// Transaction carries the transfer operation, when the block holds one.
type Transaction struct {
	Memo     Memo
	Transfer *Transfer
}

// Transfer is a ledger transfer operation between two account addresses.
type Transfer struct {
	From   AccountAddress
	To     AccountAddress
	Amount Tokens
}

// Tokens is a ledger token amount.
type Tokens struct {
	E8s uint64
}
