package database

import (
	"gorm.io/gorm"

	"github.com/fragisir/automatic-resturent-system/models"
	"github.com/fragisir/automatic-resturent-system/stores"
	"github.com/fragisir/automatic-resturent-system/utils"
)

func DefaultMenu() []models.MenuItem {
	return []models.MenuItem{
		{ItemNumber: 1, Name: "Chicken Momo", Price: 250, Category: "Snacks", IsAvailable: true},
		{ItemNumber: 2, Name: "Veg Momo", Price: 200, Category: "Snacks", IsAvailable: true},
		{ItemNumber: 3, Name: "Chowmein", Price: 180, Category: "Noodles", IsAvailable: true},
		{ItemNumber: 4, Name: "Thukpa", Price: 220, Category: "Noodles", IsAvailable: true},
		{ItemNumber: 5, Name: "Dal Bhat Set", Price: 350, Category: "Meals", IsAvailable: true},
		{ItemNumber: 6, Name: "Chicken Chilli", Price: 320, Category: "Meals", IsAvailable: true},
		{ItemNumber: 7, Name: "Masala Tea", Price: 60, Category: "Drinks", IsAvailable: true},
		{ItemNumber: 8, Name: "Lassi", Price: 120, Category: "Drinks", IsAvailable: true},
	}
}

// SeedMenu fills an empty catalog with the default menu.
func SeedMenu(db *gorm.DB) error {
	seeded, err := stores.New(db).Menu().SeedIfEmpty(DefaultMenu())
	if err != nil {
		return err
	}
	if seeded {
		utils.InfoLogger.Println("Menu catalog seeded.")
	}
	return nil
}
