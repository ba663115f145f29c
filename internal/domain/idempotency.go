package domain

import "time"

// Idempotency records the outcome of a completed unsafe request keyed by
// (route, key), so a retried POST returns the original resource instead of
// creating a duplicate.
type Idempotency struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Route      string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_idem_route_key,priority:1"`
	Key        string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idem_route_key,priority:2"`
	ResourceID string    `gorm:"type:char(36);not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency_keys" }
