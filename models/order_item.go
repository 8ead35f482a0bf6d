package models

// OrderItem is a line copied from the menu when the order was placed. Lines are
// never edited afterwards.
type OrderItem struct {
	ID         uint    `gorm:"primaryKey" json:"-"`
	OrderID    string  `gorm:"type:varchar(36);not null;index" json:"-"`
	Position   int     `gorm:"not null" json:"-"`
	ItemNumber int     `gorm:"not null" json:"itemNumber"`
	Name       string  `gorm:"type:varchar(255);not null" json:"name"`
	ImageURL   *string `gorm:"type:varchar(512)" json:"imageUrl,omitempty"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	UnitPrice  float64 `gorm:"type:decimal(10,2);not null" json:"price"`
}
