package repository

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/domain"
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/amirasaad/bankledger/pkg/domain/money"
	"github.com/amirasaad/bankledger/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
	// forUpdate makes reads take a row lock. Set for repositories bound to a transaction.
	forUpdate bool
}

// NewAccountRepository creates an account repository over db.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func newTxAccountRepository(tx *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: tx, forUpdate: true}
}

func (r *accountRepository) GetByAccountNumber(ctx context.Context, number string) (*account.Account, error) {
	q := r.db.WithContext(ctx)
	if r.forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row Account
	if err := WrapError(func() error { return q.First(&row, "number = ?", number).Error }); err != nil {
		return nil, err
	}
	return toDomainAccount(&row)
}

func (r *accountRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*account.Account, error) {
	var rows []Account
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("number").Find(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	out := make([]*account.Account, 0, len(rows))
	for i := range rows {
		a, err := toDomainAccount(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *accountRepository) Exists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := WrapError(func() error {
		return r.db.WithContext(ctx).Model(&Account{}).Where("number = ?", number).Count(&count).Error
	})
	return count > 0, err
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	row := fromDomainAccount(a)
	return WrapError(func() error { return r.db.WithContext(ctx).Create(&row).Error })
}

// Save writes balance and status guarded by the version column.
func (r *accountRepository) Save(ctx context.Context, a *account.Account) error {
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("number = ? AND version = ?", a.Number, a.Version).
		Updates(map[string]any{
			"balance":    a.Balance.Decimal(),
			"status":     string(a.Status),
			"version":    a.Version + 1,
			"updated_at": a.UpdatedAt,
		})
	if err := MapGormErrorToDomain(res.Error); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	a.Version++
	return nil
}

func toDomainAccount(row *Account) (*account.Account, error) {
	return account.New().
		WithNumber(row.Number).
		WithRoutingCode(row.RoutingCode).
		WithBalance(money.FromDecimal(row.Balance)).
		WithStatus(account.Status(row.Status)).
		WithOwnerID(row.OwnerID).
		WithInstitution(row.InstitutionID, row.InstitutionName).
		WithVersion(row.Version).
		WithCreatedAt(row.CreatedAt).
		WithUpdatedAt(row.UpdatedAt).
		Build()
}

func fromDomainAccount(a *account.Account) Account {
	return Account{
		Number:          a.Number,
		RoutingCode:     a.RoutingCode,
		Balance:         a.Balance.Decimal(),
		Status:          string(a.Status),
		OwnerID:         a.OwnerID,
		InstitutionID:   a.InstitutionID,
		InstitutionName: a.InstitutionName,
		Version:         a.Version,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}
