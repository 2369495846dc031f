package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// AccountType identifies which kind of account owns a bill.
// All account types share one billing code path; the type is data, not behaviour.
type AccountType string

const (
	AccountTypeCustomer    AccountType = "customer"
	AccountTypeDealer      AccountType = "dealer"
	AccountTypeDistributor AccountType = "distributor"
)

// IsValid reports whether t is a known account type
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeCustomer, AccountTypeDealer, AccountTypeDistributor:
		return true
	}
	return false
}

func (t AccountType) String() string {
	return string(t)
}

func (t AccountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(t))
}

func (t *AccountType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*t = AccountType(str)
	return nil
}

func (t AccountType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *AccountType) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*t = AccountType(v)
	case []byte:
		*t = AccountType(string(v))
	}
	return nil
}
