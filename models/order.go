package models

import (
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderNew     OrderStatus = "NEW"
	OrderCooking OrderStatus = "COOKING"
	OrderReady   OrderStatus = "READY"
	OrderPaid    OrderStatus = "PAID"
)

// pipeline position of each status; transitions only move forward.
var orderStatusRank = map[OrderStatus]int{
	OrderNew:     0,
	OrderCooking: 1,
	OrderReady:   2,
	OrderPaid:    3,
}

// ParseOrderStatus accepts the status names case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := orderStatusRank[status]
	return status, ok
}

// CanTransition reports whether an order may move from one status to another.
// Re-applying the current status is allowed; moving backwards is not.
func CanTransition(from, to OrderStatus) bool {
	fromRank, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

type Order struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TableNumber int         `gorm:"not null;index" json:"tableNumber"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;default:'NEW';index" json:"status"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	CreatedAt   time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updatedAt"`
}

// Total sums the snapshotted line prices.
func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}
	return total
}
