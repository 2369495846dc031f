package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// PaymentStatus is derived from a bill's paid and due amounts
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// rank orders statuses along the only allowed direction of travel
func (s PaymentStatus) rank() int {
	switch s {
	case PaymentStatusPending:
		return 0
	case PaymentStatusPartial:
		return 1
	case PaymentStatusCompleted:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether moving from s to next keeps the status monotonic
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return next.rank() >= s.rank() && next.rank() >= 0
}

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = PaymentStatus(str)
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusPending
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = PaymentStatus(v)
	case []byte:
		*s = PaymentStatus(string(v))
	}
	return nil
}
