package commands

import "github.com/amirasaad/bankledger/pkg/domain/money"

// Transfer moves money between two accounts. The receiver is identified by
// account number and routing code together; a mismatch means the receiver does not exist.
type Transfer struct {
	SenderAccountNumber   string
	ReceiverAccountNumber string
	ReceiverRoutingCode   string
	Amount                money.Money
	// Purpose is optional and copied to the TRANSFER_OUT record.
	// When nil, the TRANSFER_IN record gets a generated description.
	Purpose        *string
	IdempotencyKey string
}
