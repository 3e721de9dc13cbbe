package commands

import (
	"github.com/amirasaad/bankledger/pkg/domain/account"
	"github.com/google/uuid"
)

// SetStatus locks or unlocks an account.
type SetStatus struct {
	AccountNumber string
	Status        account.Status
	ChangedBy     uuid.UUID
}
