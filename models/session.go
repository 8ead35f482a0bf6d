package models

import (
	"time"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionExpired   SessionStatus = "EXPIRED"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// Session is one customer's time-boxed claim on a table.
type Session struct {
	ID           string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableNumber  int           `gorm:"not null;index:idx_sessions_table_status" json:"tableNumber"`
	SessionToken string        `gorm:"type:varchar(512);not null;uniqueIndex" json:"-"`
	Status       SessionStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_sessions_table_status" json:"status"`
	OrderID      *string       `gorm:"type:varchar(36);index" json:"orderId"`
	CreatedAt    time.Time     `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time     `gorm:"not null" json:"updatedAt"`
	ExpiresAt    time.Time     `gorm:"not null;index" json:"expiresAt"`
}

// LiveAt reports whether the session still holds the table at t.
func (s *Session) LiveAt(t time.Time) bool {
	return s.Status == SessionActive && s.ExpiresAt.After(t)
}
