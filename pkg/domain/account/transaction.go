package account

import (
	"time"

	"github.com/amirasaad/bankledger/pkg/domain/money"
)

// TransactionType classifies a ledger record.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdraw    TransactionType = "WITHDRAW"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
)

// Transaction is an immutable ledger record owned by a single account.
// Transfers produce a TRANSFER_OUT/TRANSFER_IN pair that reference each other's account.
type Transaction struct {
	ID                          string
	Type                        TransactionType
	Amount                      money.Money
	BalanceAfter                money.Money // owning account balance right after this record
	AccountNumber               string
	CounterpartyAccountNumber   *string
	CounterpartyInstitutionName *string
	Purpose                     *string
	CreatedAt                   time.Time
}

// NewTransactionFromData creates a Transaction from raw data (used for DB hydration or test fixtures).
// This bypasses the recorder and should only be used for repository hydration or tests.
func NewTransactionFromData(
	id string,
	txType TransactionType,
	amount, balanceAfter money.Money,
	accountNumber string,
	counterpartyAccount, counterpartyInstitution, purpose *string,
	created time.Time,
) *Transaction {
	return &Transaction{
		ID:                          id,
		Type:                        txType,
		Amount:                      amount,
		BalanceAfter:                balanceAfter,
		AccountNumber:               accountNumber,
		CounterpartyAccountNumber:   counterpartyAccount,
		CounterpartyInstitutionName: counterpartyInstitution,
		Purpose:                     purpose,
		CreatedAt:                   created,
	}
}
