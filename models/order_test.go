package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus(" cooking ")
	assert.True(t, ok)
	assert.Equal(t, OrderCooking, status)

	_, ok = ParseOrderStatus("SERVED")
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderNew, OrderCooking, true},
		{OrderCooking, OrderReady, true},
		{OrderReady, OrderPaid, true},
		{OrderNew, OrderPaid, true},
		{OrderReady, OrderReady, true},
		{OrderReady, OrderNew, false},
		{OrderPaid, OrderCooking, false},
		{OrderCooking, OrderNew, false},
		{OrderNew, OrderStatus("SERVED"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestOrderTotal(t *testing.T) {
	order := Order{Items: []OrderItem{
		{Quantity: 2, UnitPrice: 4.5},
		{Quantity: 1, UnitPrice: 10},
	}}
	assert.InDelta(t, 19.0, order.Total(), 0.0001)
}
