package commands

import "github.com/amirasaad/bankledger/pkg/domain/money"

// Withdraw debits an account.
type Withdraw struct {
	AccountNumber  string
	Amount         money.Money
	IdempotencyKey string
}
