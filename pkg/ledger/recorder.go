package ledger

import (
	"strings"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/google/uuid"
)

// Recorder builds immutable ledger records. It never persists anything;
// the engine appends what it returns inside the same unit of work that saves
// the balances.
type Recorder struct {
	newID func() string
	now   func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithIDGenerator overrides the transaction id source.
func WithIDGenerator(fn func() string) RecorderOption {
	return func(r *Recorder) { r.newID = fn }
}

// WithClock overrides the record timestamp source.
func WithClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = fn }
}

// NewRecorder creates a Recorder that issues random UUIDs and UTC timestamps.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		newID: uuid.NewString,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the recorder's current time.
func (r *Recorder) Now() time.Time {
	return r.now()
}

// Deposit records a credit to acct. balanceAfter is the post-credit balance.
func (r *Recorder) Deposit(acct *account.Account, amount, balanceAfter money.Money, at time.Time) *account.Transaction {
	return r.single(account.TransactionTypeDeposit, acct, amount, balanceAfter, at)
}

// Withdraw records a debit from acct.
func (r *Recorder) Withdraw(acct *account.Account, amount, balanceAfter money.Money, at time.Time) *account.Transaction {
	return r.single(account.TransactionTypeWithdraw, acct, amount, balanceAfter, at)
}

func (r *Recorder) single(t account.TransactionType, acct *account.Account, amount, balanceAfter money.Money, at time.Time) *account.Transaction {
	return &account.Transaction{
		ID:            r.newID(),
		Type:          t,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		AccountNumber: acct.Number,
		CreatedAt:     at,
	}
}

// Transfer records both legs of a transfer with the same amount and timestamp.
// The outgoing leg carries the caller's purpose; the incoming leg carries
// "Received from <sender>" when no purpose was given. A blank purpose counts
// as none.
func (r *Recorder) Transfer(
	sender, receiver *account.Account,
	amount, senderAfter, receiverAfter money.Money,
	purpose *string,
	at time.Time,
) (out, in *account.Transaction) {
	senderNumber := sender.Number
	receiverNumber := receiver.Number
	senderBank := sender.InstitutionName
	receiverBank := receiver.InstitutionName

	purpose = normalizePurpose(purpose)
	inPurpose := "Received from " + senderNumber
	if purpose != nil {
		inPurpose = *purpose
	}

	out = &account.Transaction{
		ID:                          r.newID(),
		Type:                        account.TransactionTypeTransferOut,
		Amount:                      amount,
		BalanceAfter:                senderAfter,
		AccountNumber:               senderNumber,
		CounterpartyAccountNumber:   &receiverNumber,
		CounterpartyInstitutionName: optional(receiverBank),
		Purpose:                     copyString(purpose),
		CreatedAt:                   at,
	}
	in = &account.Transaction{
		ID:                          r.newID(),
		Type:                        account.TransactionTypeTransferIn,
		Amount:                      amount,
		BalanceAfter:                receiverAfter,
		AccountNumber:               receiverNumber,
		CounterpartyAccountNumber:   &senderNumber,
		CounterpartyInstitutionName: optional(senderBank),
		Purpose:                     &inPurpose,
		CreatedAt:                   at,
	}
	return out, in
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizePurpose trims the purpose and maps a blank one to nil.
func normalizePurpose(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
