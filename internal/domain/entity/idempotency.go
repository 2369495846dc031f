package entity

import (
	"time"
)

// IdempotencyKey stores a processed HTTP request so a retried submission
// gets the original response instead of being executed again
type IdempotencyKey struct {
	ID           uint      `gorm:"primaryKey"`
	Key          string    `gorm:"size:255;not null;uniqueIndex:idx_idempotency_actor_key,priority:2"`
	Actor        string    `gorm:"size:100;not null;uniqueIndex:idx_idempotency_actor_key,priority:1"` // User who made the request
	Endpoint     string    `gorm:"size:255;not null"`                                                  // e.g. "POST /api/v1/payments/bulk"
	RequestHash  string    `gorm:"size:64"`                                                            // SHA256 of the request body
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// IsExpired checks if the idempotency key has expired
func (i *IdempotencyKey) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
