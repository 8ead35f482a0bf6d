package models

import "time"

const (
	TableAvailable = "available"
	TableReserved  = "reserved"
	TableOccupied  = "occupied"
)

// TableState is derived from session and order rows; tables have no record of their own.
type TableState struct {
	TableNumber      int        `json:"tableNumber"`
	State            string     `json:"state"`
	SessionExpiresAt *time.Time `json:"sessionExpiresAt,omitempty"`
	Order            *Order     `json:"order,omitempty"`
}
