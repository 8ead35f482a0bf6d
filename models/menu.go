package models

// MenuItem is the catalog entry an order line is priced from.
type MenuItem struct {
	ID          uint    `gorm:"primaryKey" json:"-"`
	ItemNumber  int     `gorm:"not null;uniqueIndex" json:"itemNumber"`
	Name        string  `gorm:"type:varchar(255);not null" json:"name"`
	Price       float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL    *string `gorm:"type:varchar(512)" json:"imageUrl,omitempty"`
	Category    string  `gorm:"type:varchar(100);not null" json:"category"`
	IsAvailable bool    `gorm:"not null" json:"isAvailable"`
}
