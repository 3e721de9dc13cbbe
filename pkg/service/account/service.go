// Package account is the application service in front of the ledger engine.
// It authorizes the caller against the target account and then delegates;
// the engine itself performs no identity checks.
package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/bankledger/pkg/commands"
	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/identity"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/amirasaad/bankledger/pkg/ledger"
	"github.com/google/uuid"
)

// Ledger is the subset of the ledger engine the service depends on.
type Ledger interface {
	Deposit(ctx context.Context, cmd commands.Deposit) (money.Money, error)
	Withdraw(ctx context.Context, cmd commands.Withdraw) (money.Money, error)
	Transfer(ctx context.Context, cmd commands.Transfer) (ledger.TransferResult, error)
	SetStatus(ctx context.Context, cmd commands.SetStatus) (*account.Account, error)
	Account(ctx context.Context, number string) (*account.Account, error)
	History(ctx context.Context, number string) ([]*account.Transaction, error)
	AccountsOf(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error)
}

// Service authorizes account operations for an authenticated principal.
type Service struct {
	ledger Ledger
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(l Ledger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: l, logger: logger.With("service", "account")}
}

// Deposit credits an account owned by the caller.
func (s *Service) Deposit(ctx context.Context, p identity.Principal, cmd commands.Deposit) (money.Money, error) {
	if _, err := s.authorize(ctx, p, cmd.AccountNumber, identity.CanOperate, domain.ErrAccountNotFound); err != nil {
		return money.Money{}, err
	}
	return s.ledger.Deposit(ctx, cmd)
}

// Withdraw debits an account owned by the caller.
func (s *Service) Withdraw(ctx context.Context, p identity.Principal, cmd commands.Withdraw) (money.Money, error) {
	if _, err := s.authorize(ctx, p, cmd.AccountNumber, identity.CanOperate, domain.ErrAccountNotFound); err != nil {
		return money.Money{}, err
	}
	return s.ledger.Withdraw(ctx, cmd)
}

// Transfer sends money from an account owned by the caller. Any receiver may be targeted.
func (s *Service) Transfer(ctx context.Context, p identity.Principal, cmd commands.Transfer) (ledger.TransferResult, error) {
	if _, err := s.authorize(ctx, p, cmd.SenderAccountNumber, identity.CanOperate, domain.ErrSenderNotFound); err != nil {
		return ledger.TransferResult{}, err
	}
	return s.ledger.Transfer(ctx, cmd)
}

// SetStatus locks or unlocks an account. Only admins and managers of the account's bank may.
func (s *Service) SetStatus(ctx context.Context, p identity.Principal, number string, status account.Status) (*account.Account, error) {
	if _, err := s.authorize(ctx, p, number, identity.CanChangeStatus, domain.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return s.ledger.SetStatus(ctx, commands.SetStatus{
		AccountNumber: number,
		Status:        status,
		ChangedBy:     p.Subject(),
	})
}

// Balance returns an account balance the caller may view.
func (s *Service) Balance(ctx context.Context, p identity.Principal, number string) (money.Money, error) {
	acct, err := s.authorize(ctx, p, number, identity.CanView, domain.ErrAccountNotFound)
	if err != nil {
		return money.Money{}, err
	}
	return acct.Balance, nil
}

// History returns the records of an account the caller may view, newest first.
func (s *Service) History(ctx context.Context, p identity.Principal, number string) ([]*account.Transaction, error) {
	if _, err := s.authorize(ctx, p, number, identity.CanView, domain.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, number)
}

// MyAccounts lists the caller's own accounts. Only customers own accounts.
func (s *Service) MyAccounts(ctx context.Context, p identity.Principal) ([]*account.Account, error) {
	c, ok := p.(identity.Customer)
	if !ok {
		return nil, domain.ErrForbidden
	}
	return s.ledger.AccountsOf(ctx, c.ID)
}

func (s *Service) authorize(
	ctx context.Context,
	p identity.Principal,
	number string,
	allowed func(identity.Principal, *account.Account) bool,
	notFound error,
) (*account.Account, error) {
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	acct, err := s.ledger.Account(ctx, number)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	if !allowed(p, acct) {
		s.logger.Warn("access denied", "account", number, "subject", p.Subject())
		return nil, domain.ErrForbidden
	}
	return acct, nil
}
