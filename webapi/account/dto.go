package account

import (
	"fmt"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
	accountdomain "github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
)

// AmountRequest is the body of deposit and withdraw calls.
// Amounts are decimal strings such as "40.00".
type AmountRequest struct {
	Amount string `json:"amount" validate:"required,numeric"`
}

// TransferRequest is the body of a transfer call.
type TransferRequest struct {
	ReceiverAccountNumber string  `json:"receiver_account_number" validate:"required,max=34"`
	ReceiverRoutingCode   string  `json:"receiver_routing_code" validate:"required,max=16"`
	Amount                string  `json:"amount" validate:"required,numeric"`
	Purpose               *string `json:"purpose,omitempty" validate:"omitempty,max=140"`
}

// StatusRequest locks or unlocks an account.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE active inactive"`
}

// AccountDTO is the API representation of an account.
type AccountDTO struct {
	Number          string      `json:"number"`
	RoutingCode     string      `json:"routing_code"`
	Balance         money.Money `json:"balance"`
	Status          string      `json:"status"`
	InstitutionName string      `json:"institution_name"`
}

// TransactionDTO is the API representation of a ledger record. Missing
// counterparty and purpose fields are rendered as "-".
type TransactionDTO struct {
	ID                   string      `json:"id"`
	Type                 string      `json:"type"`
	Amount               money.Money `json:"amount"`
	BalanceAfter         money.Money `json:"balance_after"`
	CounterpartyAccount  string      `json:"counterparty_account_number"`
	CounterpartyBankName string      `json:"counterparty_bank_name"`
	Purpose              string      `json:"purpose"`
	CreatedAt            time.Time   `json:"created_at"`
}

func parseAmount(s string) (money.Money, error) {
	m, err := money.New(s)
	if err != nil {
		return money.Money{}, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}
	return m, nil
}

func toAccountDTO(a *accountdomain.Account) AccountDTO {
	return AccountDTO{
		Number:          a.Number,
		RoutingCode:     a.RoutingCode,
		Balance:         a.Balance,
		Status:          string(a.Status),
		InstitutionName: a.InstitutionName,
	}
}

func toTransactionDTO(tx *accountdomain.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                   tx.ID,
		Type:                 string(tx.Type),
		Amount:               tx.Amount,
		BalanceAfter:         tx.BalanceAfter,
		CounterpartyAccount:  orDash(tx.CounterpartyAccountNumber),
		CounterpartyBankName: orDash(tx.CounterpartyInstitutionName),
		Purpose:              orDash(tx.Purpose),
		CreatedAt:            tx.CreatedAt,
	}
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
