package market

import "context"

// VerifyPayment reports whether the block at the given index contains a
// transfer from the sender to the receiver with the exact amount and memo.
// Absence of a matching transfer is a normal false result; only a failed
// ledger query is an error.
func (service *Service) VerifyPayment(ctx context.Context, sender Identity, receiver Identity, amount Amount, block BlockIndex, memo Memo) (bool, error) {
	blockRange, err := service.ledger.QueryBlocks(ctx, block, 1)
	if err != nil {
		return false, WrapError(operationVerifyPayment, "ledger", "query", err)
	}
	senderAddress := AddressForIdentity(sender)
	receiverAddress := AddressForIdentity(receiver)
	for _, candidate := range blockRange.Blocks {
		if candidate.Transaction.Memo != memo {
			continue
		}
		transfer := candidate.Transaction.Transfer
		if transfer == nil {
			continue
		}
		if !SameAddress(transfer.From, senderAddress) {
			continue
		}
		if !SameAddress(transfer.To, receiverAddress) {
			continue
		}
		if transfer.Amount.E8s != amount.Uint64() {
			continue
		}
		return true, nil
	}
	return false, nil
}
