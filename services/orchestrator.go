package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/fragisir/automatic-resturent-system/kds"
	"github.com/fragisir/automatic-resturent-system/models"
	"github.com/fragisir/automatic-resturent-system/stores"
	"github.com/fragisir/automatic-resturent-system/tokens"
	"github.com/fragisir/automatic-resturent-system/utils"
)

// Publisher receives committed order events. Publish must not block.
type Publisher interface {
	Publish(kds.Event)
}

type TokenCodec interface {
	Issue(tableNumber int, sessionID string, ttl time.Duration) (string, time.Time, error)
	Verify(tableNumber int, token string) (tokens.Claims, error)
}

type Options struct {
	SessionTTL   time.Duration
	StoreTimeout time.Duration
	TableCount   int
	Now          func() time.Time
}

type SessionGrant struct {
	Token     string    `json:"token"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type TokenGrant struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// OrderLine is an item as submitted by the customer.
type OrderLine struct {
	ItemNumber int     `json:"itemNumber" validate:"gte=1"`
	Name       string  `json:"name" validate:"max=255"`
	ImageURL   *string `json:"imageUrl,omitempty" validate:"omitempty,max=512"`
	Quantity   int     `json:"quantity" validate:"gte=1"`
	UnitPrice  float64 `json:"price" validate:"gte=0"`
}

type PlaceOrderRequest struct {
	TableNumber int         `json:"tableNumber"`
	Items       []OrderLine `json:"items" validate:"required,min=1,dive"`
	Token       string      `json:"token"`
}

type CancelResult struct {
	OrderID     string `json:"orderId"`
	TableNumber int    `json:"tableNumber"`
}

// Orchestrator owns the table session and order lifecycle. Operations on the
// same table are serialized; each runs in one database transaction and
// publishes only after commit.
type Orchestrator struct {
	store     *stores.Store
	codec     TokenCodec
	publisher Publisher
	locks     *TableLocks
	validate  *validator.Validate
	opts      Options
}

func NewOrchestrator(db *gorm.DB, codec TokenCodec, publisher Publisher, opts Options) *Orchestrator {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Minute
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	if opts.TableCount <= 0 {
		opts.TableCount = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Orchestrator{
		store:     stores.New(db),
		codec:     codec,
		publisher: publisher,
		locks:     NewTableLocks(),
		validate:  validate,
		opts:      opts,
	}
}

func (o *Orchestrator) SessionTTL() time.Duration { return o.opts.SessionTTL }

func (o *Orchestrator) TableCount() int { return o.opts.TableCount }

func (o *Orchestrator) now() time.Time {
	return o.opts.Now().UTC()
}

func (o *Orchestrator) checkTable(tableNumber int) error {
	if tableNumber < 1 || tableNumber > o.opts.TableCount {
		return utils.NewError(utils.ErrValidation, fmt.Sprintf("Invalid table number: must be between 1 and %d", o.opts.TableCount))
	}
	return nil
}

func (o *Orchestrator) lockTable(ctx context.Context, tableNumber int) (func(), error) {
	unlock, err := o.locks.Lock(ctx, tableNumber)
	if err != nil {
		return nil, utils.WrapError(utils.ErrStoreUnavailable, "", err)
	}
	return unlock, nil
}

// CreateOrFetchSession returns the table's live session, or opens a new one
// when the table has none.
func (o *Orchestrator) CreateOrFetchSession(ctx context.Context, tableNumber int) (*SessionGrant, error) {
	if err := o.checkTable(tableNumber); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	unlock, err := o.lockTable(ctx, tableNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var grant *SessionGrant
	created := false
	err = o.store.Transaction(ctx, func(tx *stores.Store) error {
		now := o.now()
		if err := reconcileTable(tx, tableNumber, now); err != nil {
			return err
		}

		live, err := tx.Sessions().FindLive(tableNumber, now)
		if err == nil {
			grant = &SessionGrant{Token: live.SessionToken, SessionID: live.ID, ExpiresAt: live.ExpiresAt.UTC()}
			return nil
		}
		if !errors.Is(err, utils.ErrNotFound) {
			return err
		}

		id := uuid.NewString()
		token, expiresAt, err := o.codec.Issue(tableNumber, id, o.opts.SessionTTL)
		if err != nil {
			return fmt.Errorf("issue session token: %w", err)
		}
		session := &models.Session{
			ID:           id,
			TableNumber:  tableNumber,
			SessionToken: token,
			Status:       models.SessionActive,
			ExpiresAt:    expiresAt,
		}
		if err := tx.Sessions().Create(session); err != nil {
			return err
		}
		grant = &SessionGrant{Token: token, SessionID: id, ExpiresAt: expiresAt}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		utils.InfoLogger.WithFields(logrus.Fields{
			"table":   tableNumber,
			"session": grant.SessionID,
		}).Info("Session created")
	}
	return grant, nil
}

// reconcileTable expires elapsed sessions and completes sessions whose order
// has been paid.
func reconcileTable(tx *stores.Store, tableNumber int, now time.Time) error {
	if _, err := tx.Sessions().ExpireElapsed(tableNumber, now); err != nil {
		return err
	}
	_, err := tx.Sessions().CompletePaidLinked(tableNumber)
	return err
}

func (o *Orchestrator) validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return utils.WrapError(utils.ErrValidation, "Invalid order items", err)
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "PlaceOrderRequest.")
	return utils.WrapError(utils.ErrValidation, fmt.Sprintf("Invalid %s (%s)", field, fe.Tag()), err)
}

// PlaceOrder verifies the token and session, then opens the table's order.
func (o *Orchestrator) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*models.Order, error) {
	if err := o.checkTable(req.TableNumber); err != nil {
		return nil, err
	}
	claims, err := o.codec.Verify(req.TableNumber, req.Token)
	if err != nil {
		return nil, err
	}
	if err := o.validate.Struct(&req); err != nil {
		return nil, o.validationError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	unlock, err := o.lockTable(ctx, req.TableNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var order *models.Order
	err = o.store.Transaction(ctx, func(tx *stores.Store) error {
		now := o.now()

		session, err := tx.Sessions().GetForUpdate(claims.SessionID)
		if errors.Is(err, utils.ErrNotFound) {
			return utils.NewError(utils.ErrSessionInvalid, "Session expired or invalid")
		}
		if err != nil {
			return err
		}
		if session.TableNumber != req.TableNumber || !session.LiveAt(now) {
			return utils.NewError(utils.ErrSessionInvalid, "Session expired or invalid")
		}

		_, err = tx.Orders().FindOpenByTable(req.TableNumber)
		if err == nil {
			return utils.NewError(utils.ErrTableOccupied, "Table is already occupied. Please wait for the bill to be paid.")
		}
		if !errors.Is(err, utils.ErrNotFound) {
			return err
		}

		// a session places at most one order
		if session.OrderID != nil {
			return utils.NewError(utils.ErrSessionInvalid, "Session expired or invalid")
		}

		items, err := o.snapshotItems(tx, req.Items)
		if err != nil {
			return err
		}

		order = &models.Order{
			ID:          uuid.NewString(),
			TableNumber: req.TableNumber,
			Status:      models.OrderNew,
			Items:       items,
		}
		if err := tx.Orders().Create(order); err != nil {
			return err
		}
		return tx.Sessions().LinkOrder(session.ID, order.ID)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":   order.TableNumber,
		"order":   order.ID,
		"session": claims.SessionID,
		"items":   len(order.Items),
	}).Info("Order placed")
	o.publisher.Publish(kds.NewEvent(kds.EventNewOrder, order.TableNumber, order))
	return order, nil
}

// snapshotItems copies the submitted lines, taking name, image and price from
// the catalog when the item number is known there.
func (o *Orchestrator) snapshotItems(tx *stores.Store, lines []OrderLine) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := copier.Copy(&items, &lines); err != nil {
		return nil, fmt.Errorf("copy order lines: %w", err)
	}

	numbers := make([]int, 0, len(lines))
	for _, line := range lines {
		numbers = append(numbers, line.ItemNumber)
	}
	catalog, err := tx.Menu().ByNumbers(numbers)
	if err != nil {
		return nil, err
	}

	for i := range items {
		item := &items[i]
		if entry, ok := catalog[item.ItemNumber]; ok {
			if !entry.IsAvailable {
				return nil, utils.NewError(utils.ErrValidation, fmt.Sprintf("%s is not available", entry.Name))
			}
			item.Name = entry.Name
			item.UnitPrice = entry.Price
			if entry.ImageURL != nil {
				item.ImageURL = entry.ImageURL
			}
		}
		if strings.TrimSpace(item.Name) == "" {
			return nil, utils.NewError(utils.ErrValidation, fmt.Sprintf("Invalid items[%d].name (required)", i))
		}
	}
	return items, nil
}

// UpdateStatus moves an order forward through the kitchen pipeline. Reaching
// PAID completes the session that placed it, freeing the table.
func (o *Orchestrator) UpdateStatus(ctx context.Context, orderID string, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, utils.NewError(utils.ErrValidation, "Invalid status")
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	current, err := o.store.WithContext(ctx).Orders().Get(orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}

	unlock, err := o.lockTable(ctx, current.TableNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		updated  *models.Order
		previous models.OrderStatus
	)
	err = o.store.Transaction(ctx, func(tx *stores.Store) error {
		order, err := tx.Orders().GetForUpdate(orderID)
		if err != nil {
			return orderLookupError(err)
		}
		previous = order.Status
		if !models.CanTransition(order.Status, next) {
			return utils.NewError(utils.ErrInvalidTransition,
				fmt.Sprintf("Cannot change order status from %s to %s", order.Status, next))
		}
		if err := tx.Orders().UpdateStatus(orderID, next); err != nil {
			return err
		}
		if next == models.OrderPaid {
			if _, err := tx.Sessions().CompleteForOrder(orderID); err != nil {
				return err
			}
		}
		updated, err = tx.Orders().Get(orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table": updated.TableNumber,
		"order": updated.ID,
		"from":  previous,
		"to":    updated.Status,
	}).Info("Order status updated")
	o.publisher.Publish(kds.NewEvent(kds.EventOrderStatusUpdated, updated.TableNumber, updated))
	return updated, nil
}

// CancelOrder deletes a NEW order and cancels the session that placed it.
func (o *Orchestrator) CancelOrder(ctx context.Context, orderID string) (*CancelResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	current, err := o.store.WithContext(ctx).Orders().Get(orderID)
	if err != nil {
		return nil, orderLookupError(err)
	}

	unlock, err := o.lockTable(ctx, current.TableNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = o.store.Transaction(ctx, func(tx *stores.Store) error {
		order, err := tx.Orders().GetForUpdate(orderID)
		if err != nil {
			return orderLookupError(err)
		}
		if order.Status != models.OrderNew {
			return utils.NewError(utils.ErrInvalidState, "Only NEW orders can be cancelled")
		}
		if _, err := tx.Sessions().CancelForOrder(orderID); err != nil {
			return err
		}
		return tx.Orders().Delete(orderID)
	})
	if err != nil {
		return nil, err
	}

	result := &CancelResult{OrderID: orderID, TableNumber: current.TableNumber}
	utils.InfoLogger.WithFields(logrus.Fields{
		"table": result.TableNumber,
		"order": result.OrderID,
	}).Info("Order cancelled")
	o.publisher.Publish(kds.NewEvent(kds.EventOrderCancelled, result.TableNumber, result))
	return result, nil
}

func orderLookupError(err error) error {
	if errors.Is(err, utils.ErrNotFound) {
		return utils.WrapError(utils.ErrNotFound, "Order not found", err)
	}
	return err
}

// RefreshToken reissues the token of a live session and pushes its expiry out
// by one TTL.
func (o *Orchestrator) RefreshToken(ctx context.Context, tableNumber int, sessionID string) (*TokenGrant, error) {
	if tableNumber == 0 || strings.TrimSpace(sessionID) == "" {
		return nil, utils.NewError(utils.ErrValidation, "tableNumber and sessionId are required")
	}
	if err := o.checkTable(tableNumber); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	now := o.now()
	token, expiresAt, err := o.codec.Issue(tableNumber, sessionID, o.opts.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	ok, err := o.store.WithContext(ctx).Sessions().Extend(sessionID, tableNumber, token, expiresAt, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.NewError(utils.ErrSessionInvalid, "Session expired or invalid")
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":   tableNumber,
		"session": sessionID,
	}).Debug("Session token refreshed")
	return &TokenGrant{Token: token, ExpiresAt: expiresAt}, nil
}

// ActiveOrder returns the table's open order, or nil when the table has none.
func (o *Orchestrator) ActiveOrder(ctx context.Context, tableNumber int, token string) (*models.Order, error) {
	if err := o.checkTable(tableNumber); err != nil {
		return nil, err
	}
	if _, err := o.codec.Verify(tableNumber, token); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	order, err := o.store.WithContext(ctx).Orders().FindOpenByTable(tableNumber)
	if errors.Is(err, utils.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns orders newest first. An empty status lists all of them.
func (o *Orchestrator) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	var filter *models.OrderStatus
	if strings.TrimSpace(status) != "" {
		parsed, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, utils.NewError(utils.ErrValidation, "Invalid status")
		}
		filter = &parsed
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	orders, err := o.store.WithContext(ctx).Orders().List(filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// Tables derives the state of every table from live sessions and open orders.
func (o *Orchestrator) Tables(ctx context.Context) ([]models.TableState, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	store := o.store.WithContext(ctx)
	sessions, err := store.Sessions().ListLive(o.now())
	if err != nil {
		return nil, err
	}
	orders, err := store.Orders().ListOpen()
	if err != nil {
		return nil, err
	}

	states := make([]models.TableState, o.opts.TableCount)
	for i := range states {
		states[i] = models.TableState{TableNumber: i + 1, State: models.TableAvailable}
	}
	for i := range sessions {
		s := &sessions[i]
		if s.TableNumber < 1 || s.TableNumber > len(states) {
			continue
		}
		expiresAt := s.ExpiresAt.UTC()
		states[s.TableNumber-1].State = models.TableReserved
		states[s.TableNumber-1].SessionExpiresAt = &expiresAt
	}
	for i := range orders {
		order := &orders[i]
		if order.TableNumber < 1 || order.TableNumber > len(states) {
			continue
		}
		states[order.TableNumber-1].State = models.TableOccupied
		states[order.TableNumber-1].Order = order
	}
	return states, nil
}

func (o *Orchestrator) Menu(ctx context.Context) ([]models.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	items, err := o.store.WithContext(ctx).Menu().List()
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	return items, nil
}

// ReconcileAll runs the per-table reconciliation for every table that has an
// elapsed session or a session whose order was paid. It returns the number of
// tables touched.
func (o *Orchestrator) ReconcileAll(ctx context.Context) (int, error) {
	listCtx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	tables, err := o.store.WithContext(listCtx).Sessions().TablesNeedingReconcile(o.now())
	cancel()
	if err != nil {
		return 0, err
	}

	done := 0
	for _, table := range tables {
		if err := o.reconcile(ctx, table); err != nil {
			return done, fmt.Errorf("reconcile table %d: %w", table, err)
		}
		done++
	}
	return done, nil
}

func (o *Orchestrator) reconcile(ctx context.Context, tableNumber int) error {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	unlock, err := o.lockTable(ctx, tableNumber)
	if err != nil {
		return err
	}
	defer unlock()

	return o.store.Transaction(ctx, func(tx *stores.Store) error {
		return reconcileTable(tx, tableNumber, o.now())
	})
}

// ClearAllSessions deletes every session row.
func (o *Orchestrator) ClearAllSessions(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()

	deleted, err := o.store.WithContext(ctx).Sessions().DeleteAll()
	if err != nil {
		return 0, err
	}
	utils.InfoLogger.WithField("deleted", deleted).Warn("All sessions cleared")
	return deleted, nil
}
