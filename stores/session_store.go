package stores

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fragisir/automatic-resturent-system/models"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type SessionStore struct {
	db *gorm.DB
}

func (s *SessionStore) Create(session *models.Session) error {
	if err := s.db.Create(session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.WrapError(utils.ErrStoreUnavailable, "concurrent session creation, retry", err)
		}
		return mapError(err)
	}
	return nil
}

func (s *SessionStore) Get(id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("id = ?", id).First(&session).Error; err != nil {
		return nil, mapError(err)
	}
	return &session, nil
}

// GetForUpdate loads a session and locks its row for the rest of the transaction.
func (s *SessionStore) GetForUpdate(id string) (*models.Session, error) {
	var session models.Session
	if err := forUpdate(s.db).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, mapError(err)
	}
	return &session, nil
}

// FindLive returns the table's ACTIVE session that has not yet expired at now.
func (s *SessionStore) FindLive(tableNumber int, now time.Time) (*models.Session, error) {
	var session models.Session
	err := forUpdate(s.db).
		Where("table_number = ? AND status = ? AND expires_at > ?", tableNumber, models.SessionActive, now).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &session, nil
}

// ListLive returns every session still holding a table at now.
func (s *SessionStore) ListLive(now time.Time) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.
		Where("status = ? AND expires_at > ?", models.SessionActive, now).
		Order("table_number ASC").
		Find(&sessions).Error
	return sessions, mapError(err)
}

// ExpireElapsed marks the table's ACTIVE sessions whose expiry has passed as EXPIRED.
func (s *SessionStore) ExpireElapsed(tableNumber int, now time.Time) (int64, error) {
	res := s.db.Model(&models.Session{}).
		Where("table_number = ? AND status = ? AND expires_at <= ?", tableNumber, models.SessionActive, now).
		Update("status", models.SessionExpired)
	return res.RowsAffected, mapError(res.Error)
}

// CompletePaidLinked completes the table's ACTIVE sessions whose order was paid.
func (s *SessionStore) CompletePaidLinked(tableNumber int) (int64, error) {
	paid := s.db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Order{}).
		Select("id").
		Where("status = ?", models.OrderPaid)

	res := s.db.Model(&models.Session{}).
		Where("table_number = ? AND status = ? AND order_id IN (?)", tableNumber, models.SessionActive, paid).
		Update("status", models.SessionCompleted)
	return res.RowsAffected, mapError(res.Error)
}

// TablesNeedingReconcile lists tables with an elapsed ACTIVE session or an
// ACTIVE session whose order is already paid.
func (s *SessionStore) TablesNeedingReconcile(now time.Time) ([]int, error) {
	paid := s.db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Order{}).
		Select("id").
		Where("status = ?", models.OrderPaid)

	var tables []int
	err := s.db.Model(&models.Session{}).
		Distinct("table_number").
		Where("status = ?", models.SessionActive).
		Where(s.db.Session(&gorm.Session{NewDB: true}).Where("expires_at <= ?", now).Or("order_id IN (?)", paid)).
		Order("table_number ASC").
		Pluck("table_number", &tables).Error
	return tables, mapError(err)
}

func (s *SessionStore) LinkOrder(sessionID, orderID string) error {
	res := s.db.Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("order_id", orderID)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NewError(utils.ErrNotFound, "session not found")
	}
	return nil
}

// CompleteForOrder completes the ACTIVE sessions that placed the order.
func (s *SessionStore) CompleteForOrder(orderID string) (int64, error) {
	res := s.db.Model(&models.Session{}).
		Where("order_id = ? AND status = ?", orderID, models.SessionActive).
		Update("status", models.SessionCompleted)
	return res.RowsAffected, mapError(res.Error)
}

// CancelForOrder cancels the ACTIVE sessions that placed the order and unlinks it.
func (s *SessionStore) CancelForOrder(orderID string) (int64, error) {
	res := s.db.Model(&models.Session{}).
		Where("order_id = ? AND status = ?", orderID, models.SessionActive).
		Updates(map[string]interface{}{
			"status":   models.SessionCancelled,
			"order_id": nil,
		})
	return res.RowsAffected, mapError(res.Error)
}

// Extend swaps the token and pushes the expiry out, but only while the session
// is still ACTIVE, unexpired and bound to the table. It reports whether a row changed.
func (s *SessionStore) Extend(id string, tableNumber int, token string, expiresAt, now time.Time) (bool, error) {
	res := s.db.Model(&models.Session{}).
		Where("id = ? AND table_number = ? AND status = ? AND expires_at > ?", id, tableNumber, models.SessionActive, now).
		Updates(map[string]interface{}{
			"session_token": token,
			"expires_at":    expiresAt,
		})
	if res.Error != nil {
		return false, mapError(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteAll removes every session row regardless of state.
func (s *SessionStore) DeleteAll() (int64, error) {
	res := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Session{})
	return res.RowsAffected, mapError(res.Error)
}
