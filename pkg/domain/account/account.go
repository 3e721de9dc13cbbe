package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/google/uuid"
)

var (
	// ErrAccountNumberRequired is returned when building an account without a number.
	ErrAccountNumberRequired = errors.New("account number is required")
	// ErrRoutingCodeRequired is returned when building an account without a routing code.
	ErrRoutingCodeRequired = errors.New("routing code is required")
	// ErrOwnerRequired is returned when building an account without an owner.
	ErrOwnerRequired = errors.New("owner is required")
	// ErrNegativeBalance is returned when hydrating an account with a negative balance.
	ErrNegativeBalance = errors.New("balance cannot be negative")
)

// Status is the lifecycle state of an account.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidStatus, s)
	}
	return st, nil
}

// Account is a customer's bank account, keyed by its account number.
// It acts as an aggregate root: balance and status change only through its methods.
//
// Invariants:
//   - Number is non-empty and never changes.
//   - Balance is never negative.
//   - Status is ACTIVE or INACTIVE.
type Account struct {
	Number          string
	RoutingCode     string
	Balance         money.Money
	Status          Status
	OwnerID         uuid.UUID
	InstitutionID   uuid.UUID
	InstitutionName string
	// Version is bumped on every save and used for optimistic concurrency by stores.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	number          string
	routingCode     string
	balance         money.Money
	status          Status
	ownerID         uuid.UUID
	institutionID   uuid.UUID
	institutionName string
	version         int64
	createdAt       time.Time
	updatedAt       time.Time
}

// New creates a Builder for an ACTIVE account with a zero balance.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{
		balance:   money.Zero(),
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *Builder) WithNumber(number string) *Builder {
	b.number = number
	return b
}

func (b *Builder) WithRoutingCode(code string) *Builder {
	b.routingCode = code
	return b
}

// WithBalance sets the balance. Only for hydrating from a store or test setup;
// live balances change through Credit and Debit.
func (b *Builder) WithBalance(balance money.Money) *Builder {
	b.balance = balance
	return b
}

func (b *Builder) WithStatus(status Status) *Builder {
	b.status = status
	return b
}

func (b *Builder) WithOwnerID(id uuid.UUID) *Builder {
	b.ownerID = id
	return b
}

// WithInstitution sets the owning bank's id and display name.
func (b *Builder) WithInstitution(id uuid.UUID, name string) *Builder {
	b.institutionID = id
	b.institutionName = name
	return b
}

func (b *Builder) WithVersion(v int64) *Builder {
	b.version = v
	return b
}

func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if strings.TrimSpace(b.number) == "" {
		return nil, ErrAccountNumberRequired
	}
	if strings.TrimSpace(b.routingCode) == "" {
		return nil, ErrRoutingCodeRequired
	}
	if b.ownerID == uuid.Nil {
		return nil, ErrOwnerRequired
	}
	if b.balance.IsNegative() {
		return nil, ErrNegativeBalance
	}
	if !b.status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, b.status)
	}
	return &Account{
		Number:          b.number,
		RoutingCode:     b.routingCode,
		Balance:         b.balance,
		Status:          b.status,
		OwnerID:         b.ownerID,
		InstitutionID:   b.institutionID,
		InstitutionName: b.institutionName,
		Version:         b.version,
		CreatedAt:       b.createdAt,
		UpdatedAt:       b.updatedAt,
	}, nil
}

// IsActive reports whether the account accepts mutations.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Clone returns a detached copy. Money is a value type, so a shallow copy is enough.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}

// ValidateAmount checks that amount is strictly positive and storable without rounding.
func ValidateAmount(amount money.Money) error {
	if !amount.IsPositive() || !amount.FitsScale() {
		return domain.ErrInvalidAmount
	}
	return nil
}

// ValidateDeposit checks deposit preconditions in their fixed order:
// amount, then status. Existence is the caller's concern.
func (a *Account) ValidateDeposit(amount money.Money) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if !a.IsActive() {
		return domain.ErrAccountInactive
	}
	return nil
}

// ValidateWithdraw checks withdraw preconditions in their fixed order:
// amount, status, then balance.
func (a *Account) ValidateWithdraw(amount money.Money) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if !a.IsActive() {
		return domain.ErrAccountInactive
	}
	if a.Balance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// ValidateTransfer checks transfer preconditions that follow receiver resolution:
// self-transfer, amount, sender status, receiver status, then balance.
func (a *Account) ValidateTransfer(dest *Account, amount money.Money) error {
	if dest == nil {
		return domain.ErrReceiverNotFound
	}
	if a.Number == dest.Number {
		return domain.ErrSelfTransferRejected
	}
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if !a.IsActive() {
		return domain.ErrSenderInactive
	}
	if !dest.IsActive() {
		return domain.ErrReceiverInactive
	}
	if a.Balance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// Credit adds amount to the balance and returns the new balance.
func (a *Account) Credit(amount money.Money, at time.Time) money.Money {
	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = at
	return a.Balance
}

// Debit subtracts amount from the balance and returns the new balance.
// It refuses to go below zero even if validation was skipped.
func (a *Account) Debit(amount money.Money, at time.Time) (money.Money, error) {
	next := a.Balance.Sub(amount)
	if next.IsNegative() {
		return a.Balance, domain.ErrInsufficientBalance
	}
	a.Balance = next
	a.UpdatedAt = at
	return a.Balance, nil
}

// SetStatus changes the account status.
func (a *Account) SetStatus(status Status, at time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	a.Status = status
	a.UpdatedAt = at
	return nil
}
