package stores

import (
	"gorm.io/gorm"

	"github.com/fragisir/automatic-resturent-system/models"
)

type MenuStore struct {
	db *gorm.DB
}

func (s *MenuStore) List() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := s.db.Order("item_number ASC").Find(&items).Error
	return items, mapError(err)
}

// ByNumbers indexes the catalog entries for the given item numbers.
func (s *MenuStore) ByNumbers(numbers []int) (map[int]models.MenuItem, error) {
	found := make(map[int]models.MenuItem, len(numbers))
	if len(numbers) == 0 {
		return found, nil
	}
	var items []models.MenuItem
	if err := s.db.Where("item_number IN ?", numbers).Find(&items).Error; err != nil {
		return nil, mapError(err)
	}
	for _, item := range items {
		found[item.ItemNumber] = item
	}
	return found, nil
}

// SeedIfEmpty inserts the given items when the catalog has none.
func (s *MenuStore) SeedIfEmpty(items []models.MenuItem) (bool, error) {
	var count int64
	if err := s.db.Model(&models.MenuItem{}).Count(&count).Error; err != nil {
		return false, mapError(err)
	}
	if count > 0 || len(items) == 0 {
		return false, nil
	}
	if err := s.db.Create(&items).Error; err != nil {
		return false, mapError(err)
	}
	return true, nil
}
