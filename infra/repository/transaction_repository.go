package repository

import (
	"context"
	"errors"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/amirasaad/bankledger/pkg/repository"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction log over db.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

// Append inserts all records with a single statement.
func (r *transactionRepository) Append(ctx context.Context, records ...*account.Transaction) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]Transaction, 0, len(records))
	for _, rec := range records {
		rows = append(rows, fromDomainTransaction(rec))
	}
	err := WrapError(func() error { return r.db.WithContext(ctx).Create(&rows).Error })
	if errors.Is(err, domain.ErrAlreadyExists) {
		return domain.ErrDuplicateTransactionID
	}
	return err
}

func (r *transactionRepository) ListByAccount(ctx context.Context, number string, newestFirst bool) ([]*account.Transaction, error) {
	order := "created_at ASC, id ASC"
	if newestFirst {
		order = "created_at DESC, id DESC"
	}
	var rows []Transaction
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("account_number = ?", number).Order(order).Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]*account.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainTransaction(&rows[i]))
	}
	return out, nil
}

func fromDomainTransaction(t *account.Transaction) Transaction {
	return Transaction{
		ID:                          t.ID,
		Type:                        string(t.Type),
		Amount:                      t.Amount.Decimal(),
		BalanceAfter:                t.BalanceAfter.Decimal(),
		AccountNumber:               t.AccountNumber,
		CounterpartyAccountNumber:   t.CounterpartyAccountNumber,
		CounterpartyInstitutionName: t.CounterpartyInstitutionName,
		Purpose:                     t.Purpose,
		CreatedAt:                   t.CreatedAt,
	}
}

func toDomainTransaction(row *Transaction) *account.Transaction {
	return account.NewTransactionFromData(
		row.ID,
		account.TransactionType(row.Type),
		money.FromDecimal(row.Amount),
		money.FromDecimal(row.BalanceAfter),
		row.AccountNumber,
		row.CounterpartyAccountNumber,
		row.CounterpartyInstitutionName,
		row.Purpose,
		row.CreatedAt,
	)
}
