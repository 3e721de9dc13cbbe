// Package identity models the authenticated caller handed to the ledger's
// outer layers. A Principal is a closed set of variants; what a caller may do
// is decided by switching on the variant, never by comparing role strings.
package identity

import (
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/google/uuid"
)

// Principal is one of Admin, BankManager or Customer.
type Principal interface {
	Subject() uuid.UUID
	principal()
}

// Admin may view and lock/unlock any account but does not move money.
type Admin struct {
	ID uuid.UUID
}

// BankManager manages the accounts of a single institution.
type BankManager struct {
	ID            uuid.UUID
	InstitutionID uuid.UUID
}

// Customer owns accounts and moves money out of them.
type Customer struct {
	ID uuid.UUID
}

func (a Admin) Subject() uuid.UUID       { return a.ID }
func (m BankManager) Subject() uuid.UUID { return m.ID }
func (c Customer) Subject() uuid.UUID    { return c.ID }

func (Admin) principal()       {}
func (BankManager) principal() {}
func (Customer) principal()    {}

// CanOperate reports whether p may deposit into, withdraw from, or send a transfer from acct.
func CanOperate(p Principal, acct *account.Account) bool {
	switch v := p.(type) {
	case Customer:
		return acct.OwnerID == v.ID
	default:
		return false
	}
}

// CanView reports whether p may read the balance and history of acct.
func CanView(p Principal, acct *account.Account) bool {
	switch v := p.(type) {
	case Admin:
		return true
	case BankManager:
		return acct.InstitutionID == v.InstitutionID
	case Customer:
		return acct.OwnerID == v.ID
	default:
		return false
	}
}

// CanChangeStatus reports whether p may lock or unlock acct.
func CanChangeStatus(p Principal, acct *account.Account) bool {
	switch v := p.(type) {
	case Admin:
		return true
	case BankManager:
		return acct.InstitutionID == v.InstitutionID
	default:
		return false
	}
}
