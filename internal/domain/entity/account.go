package entity

import (
	"strings"

	"github.com/sangkips/billing-core/internal/domain/enum"
)

// AccountRef identifies the owner of a set of bills.
// Customers, dealers and distributors are all addressed the same way.
type AccountRef struct {
	ID   string           `json:"account_id"`
	Type enum.AccountType `json:"account_type"`
}

// NewAccountRef normalizes the id and type of an account reference
func NewAccountRef(id string, accountType enum.AccountType) AccountRef {
	return AccountRef{
		ID:   strings.TrimSpace(id),
		Type: enum.AccountType(strings.ToLower(strings.TrimSpace(string(accountType)))),
	}
}

// IsValid reports whether the reference names a real account
func (a AccountRef) IsValid() bool {
	return a.ID != "" && a.Type.IsValid()
}

// Key is the stable identifier used for locking and caching
func (a AccountRef) Key() string {
	return "billing:" + string(a.Type) + ":" + a.ID
}

func (a AccountRef) String() string {
	return string(a.Type) + "/" + a.ID
}
