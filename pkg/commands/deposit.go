// Package commands contains command DTOs passed from the service layer to the ledger engine.
package commands

import "github.com/amirasaad/bankledger/pkg/domain/money"

// Deposit credits an account.
// IdempotencyKey is optional; when set, a retried command with the same key
// returns the first outcome instead of posting again.
type Deposit struct {
	AccountNumber  string
	Amount         money.Money
	IdempotencyKey string
}
