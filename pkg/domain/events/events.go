// Package events defines the domain events the ledger publishes after a commit.
package events

import (
	"time"

	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/google/uuid"
)

// EventType represents the type of an event in the system.
type EventType string

const (
	EventTypeDepositPosted        EventType = "Deposit.Posted"
	EventTypeWithdrawPosted       EventType = "Withdraw.Posted"
	EventTypeTransferPosted       EventType = "Transfer.Posted"
	EventTypeAccountStatusChanged EventType = "Account.StatusChanged"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is implemented by every domain event.
type Event interface {
	Type() string
}

// Posting is the wire form of a single ledger record.
type Posting struct {
	TransactionID               string                  `json:"transaction_id"`
	Type                        account.TransactionType `json:"type"`
	AccountNumber               string                  `json:"account_number"`
	Amount                      money.Money             `json:"amount"`
	BalanceAfter                money.Money             `json:"balance_after"`
	CounterpartyAccountNumber   *string                 `json:"counterparty_account_number,omitempty"`
	CounterpartyInstitutionName *string                 `json:"counterparty_institution_name,omitempty"`
	Purpose                     *string                 `json:"purpose,omitempty"`
	CreatedAt                   time.Time               `json:"created_at"`
}

// PostingFrom converts a ledger record to its wire form.
func PostingFrom(tx *account.Transaction) Posting {
	return Posting{
		TransactionID:               tx.ID,
		Type:                        tx.Type,
		AccountNumber:               tx.AccountNumber,
		Amount:                      tx.Amount,
		BalanceAfter:                tx.BalanceAfter,
		CounterpartyAccountNumber:   tx.CounterpartyAccountNumber,
		CounterpartyInstitutionName: tx.CounterpartyInstitutionName,
		Purpose:                     tx.Purpose,
		CreatedAt:                   tx.CreatedAt,
	}
}

// TransactionsPosted is emitted once the records of a money movement are committed.
// Kind is one of the *Posted event types; transfers carry both records of the pair.
type TransactionsPosted struct {
	ID         uuid.UUID `json:"id"`
	Kind       EventType `json:"kind"`
	Postings   []Posting `json:"postings"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e TransactionsPosted) Type() string { return e.Kind.String() }

// NewTransactionsPosted builds the event for the given committed records.
func NewTransactionsPosted(kind EventType, at time.Time, records ...*account.Transaction) *TransactionsPosted {
	postings := make([]Posting, 0, len(records))
	for _, r := range records {
		postings = append(postings, PostingFrom(r))
	}
	return &TransactionsPosted{
		ID:         uuid.New(),
		Kind:       kind,
		Postings:   postings,
		OccurredAt: at,
	}
}

// AccountStatusChanged is emitted after an account is locked or unlocked.
type AccountStatusChanged struct {
	ID            uuid.UUID      `json:"id"`
	AccountNumber string         `json:"account_number"`
	From          account.Status `json:"from"`
	To            account.Status `json:"to"`
	ChangedBy     uuid.UUID      `json:"changed_by"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

func (e AccountStatusChanged) Type() string { return EventTypeAccountStatusChanged.String() }

// EventTypes maps every event type to a constructor used when decoding from a broker.
var EventTypes = map[EventType]func() Event{
	EventTypeDepositPosted:        func() Event { return &TransactionsPosted{} },
	EventTypeWithdrawPosted:       func() Event { return &TransactionsPosted{} },
	EventTypeTransferPosted:       func() Event { return &TransactionsPosted{} },
	EventTypeAccountStatusChanged: func() Event { return &AccountStatusChanged{} },
}
