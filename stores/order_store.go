package stores

import (
	"errors"

	"gorm.io/gorm"

	"github.com/fragisir/automatic-resturent-system/models"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type OrderStore struct {
	db *gorm.DB
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// Create inserts the order together with its lines.
func (s *OrderStore) Create(order *models.Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	if err := s.db.Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.WrapError(utils.ErrTableOccupied, "Table is already occupied. Please wait for the bill to be paid.", err)
		}
		return mapError(err)
	}
	return nil
}

func (s *OrderStore) Get(id string) (*models.Order, error) {
	var order models.Order
	if err := preloadItems(s.db).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

func (s *OrderStore) GetForUpdate(id string) (*models.Order, error) {
	var order models.Order
	if err := preloadItems(forUpdate(s.db)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

// FindOpenByTable returns the table's order that is not yet PAID.
func (s *OrderStore) FindOpenByTable(tableNumber int) (*models.Order, error) {
	var order models.Order
	err := preloadItems(forUpdate(s.db)).
		Where("table_number = ? AND status <> ?", tableNumber, models.OrderPaid).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

// ListOpen returns all orders that still occupy a table.
func (s *OrderStore) ListOpen() ([]models.Order, error) {
	var orders []models.Order
	err := preloadItems(s.db).
		Where("status <> ?", models.OrderPaid).
		Order("table_number ASC").
		Find(&orders).Error
	return orders, mapError(err)
}

// List returns orders newest first, optionally filtered by status.
func (s *OrderStore) List(status *models.OrderStatus) ([]models.Order, error) {
	query := preloadItems(s.db).Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var orders []models.Order
	err := query.Find(&orders).Error
	return orders, mapError(err)
}

func (s *OrderStore) UpdateStatus(id string, status models.OrderStatus) error {
	res := s.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NewError(utils.ErrNotFound, "Order not found")
	}
	return nil
}

// Delete removes the order and its lines.
func (s *OrderStore) Delete(id string) error {
	if err := s.db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return mapError(err)
	}
	res := s.db.Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NewError(utils.ErrNotFound, "Order not found")
	}
	return nil
}
