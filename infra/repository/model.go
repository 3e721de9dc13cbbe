package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account represents an account row. The account number is the primary key.
type Account struct {
	Number          string          `gorm:"primaryKey;size:34"`
	RoutingCode     string          `gorm:"size:20;not null;index"`
	Balance         decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Status          string          `gorm:"type:varchar(16);not null"`
	OwnerID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	InstitutionID   uuid.UUID       `gorm:"type:uuid"`
	InstitutionName string          `gorm:"size:128"`
	Version         int64           `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction represents an immutable ledger record row.
type Transaction struct {
	ID                          string          `gorm:"primaryKey;size:36"`
	Type                        string          `gorm:"type:varchar(16);not null"`
	Amount                      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	BalanceAfter                decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	AccountNumber               string          `gorm:"size:34;not null;index:idx_transactions_account_created,priority:1"`
	CounterpartyAccountNumber   *string         `gorm:"size:34"`
	CounterpartyInstitutionName *string         `gorm:"size:128"`
	Purpose                     *string         `gorm:"size:255"`
	CreatedAt                   time.Time       `gorm:"not null;index:idx_transactions_account_created,priority:2"`
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}
