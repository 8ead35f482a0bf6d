package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fragisir/automatic-resturent-system/database"
	"github.com/fragisir/automatic-resturent-system/kds"
	"github.com/fragisir/automatic-resturent-system/models"
	"github.com/fragisir/automatic-resturent-system/stores"
	"github.com/fragisir/automatic-resturent-system/tokens"
	"github.com/fragisir/automatic-resturent-system/utils"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kds.Event
}

func (p *recordingPublisher) Publish(e kds.Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Event)
	}
	return names
}

func (p *recordingPublisher) last() kds.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fixture struct {
	orch  *Orchestrator
	clock *fakeClock
	pub   *recordingPublisher
	db    *gorm.DB
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedMenu(db))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := tokens.NewCodec("orchestrator-test-secret", tokens.WithClock(clock.Now))
	require.NoError(t, err)

	db := setupTestDB(t)
	pub := &recordingPublisher{}
	orch := NewOrchestrator(db, codec, pub, Options{
		SessionTTL:   2 * time.Minute,
		StoreTimeout: 5 * time.Second,
		TableCount:   20,
		Now:          clock.Now,
	})
	return &fixture{orch: orch, clock: clock, pub: pub, db: db}
}

func (f *fixture) session(t *testing.T, id string) *models.Session {
	t.Helper()
	s, err := stores.New(f.db).Sessions().Get(id)
	require.NoError(t, err)
	return s
}

func (f *fixture) activeSessions(t *testing.T, table int) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Session{}).
		Where("table_number = ? AND status = ?", table, models.SessionActive).
		Count(&n).Error)
	return n
}

func momoOrder(table int, token string) PlaceOrderRequest {
	return PlaceOrderRequest{
		TableNumber: table,
		Token:       token,
		Items: []OrderLine{
			{ItemNumber: 1, Name: "Chicken Momo", Quantity: 2, UnitPrice: 250},
			{ItemNumber: 7, Name: "Masala Tea", Quantity: 1, UnitPrice: 60},
		},
	}
}

func TestCreateOrFetchSessionReusesLiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.orch.CreateOrFetchSession(ctx, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, f.clock.Now().Add(2*time.Minute), first.ExpiresAt)

	f.clock.Advance(time.Minute)
	second, err := f.orch.CreateOrFetchSession(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, first.Token, second.Token)

	other, err := f.orch.CreateOrFetchSession(ctx, 4)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID, other.SessionID)
}

func TestCreateOrFetchSessionRejectsBadTable(t *testing.T) {
	f := newFixture(t)
	for _, table := range []int{0, -1, 21} {
		_, err := f.orch.CreateOrFetchSession(context.Background(), table)
		assert.ErrorIs(t, err, utils.ErrValidation, "table %d", table)
	}
}

func TestConcurrentScansYieldOneSession(t *testing.T) {
	f := newFixture(t)
	const scanners = 16

	ids := make([]string, scanners)
	var wg sync.WaitGroup
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			grant, err := f.orch.CreateOrFetchSession(context.Background(), 5)
			if assert.NoError(t, err) {
				ids[i] = grant.SessionID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.EqualValues(t, 1, f.activeSessions(t, 5))
}

func TestElapsedSessionIsExpiredOnNextScan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.orch.CreateOrFetchSession(ctx, 2)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	second, err := f.orch.CreateOrFetchSession(ctx, 2)
	require.NoError(t, err)

	assert.NotEqual(t, first.SessionID, second.SessionID)
	assert.Equal(t, models.SessionExpired, f.session(t, first.SessionID).Status)
	assert.EqualValues(t, 1, f.activeSessions(t, 2))
}

func TestHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.orch.CreateOrFetchSession(ctx, 5)
	require.NoError(t, err)

	order, err := f.orch.PlaceOrder(ctx, momoOrder(5, grant.Token))
	require.NoError(t, err)
	assert.Equal(t, models.OrderNew, order.Status)
	assert.Equal(t, 5, order.TableNumber)
	require.Len(t, order.Items, 2)
	assert.InDelta(t, 560.0, order.Total(), 0.001)

	session := f.session(t, grant.SessionID)
	require.NotNil(t, session.OrderID)
	assert.Equal(t, order.ID, *session.OrderID)

	for _, status := range []string{"COOKING", "READY", "PAID"} {
		order, err = f.orch.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatus(status), order.Status)
	}

	assert.Equal(t, models.SessionCompleted, f.session(t, grant.SessionID).Status)
	assert.Equal(t, []string{
		kds.EventNewOrder,
		kds.EventOrderStatusUpdated,
		kds.EventOrderStatusUpdated,
		kds.EventOrderStatusUpdated,
	}, f.pub.names())

	next, err := f.orch.CreateOrFetchSession(ctx, 5)
	require.NoError(t, err)
	assert.NotEqual(t, grant.SessionID, next.SessionID)
	_, err = f.orch.PlaceOrder(ctx, momoOrder(5, next.Token))
	assert.NoError(t, err)
}

func TestConcurrentDoubleOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.orch.CreateOrFetchSession(ctx, 8)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orch.PlaceOrder(ctx, momoOrder(8, grant.Token))
		}(i)
	}
	wg.Wait()

	succeeded, occupied := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, utils.ErrTableOccupied):
			occupied++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, occupied)

	orders, err := f.orch.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, []string{kds.EventNewOrder}, f.pub.names())
}

func TestPlaceOrderTokenBinding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.orch.CreateOrFetchSession(ctx, 3)
	require.NoError(t, err)

	_, err = f.orch.PlaceOrder(ctx, momoOrder(4, grant.Token))
	assert.ErrorIs(t, err, utils.ErrTableMismatch)

	_, err = f.orch.PlaceOrder(ctx, momoOrder(3, "garbage"))
	assert.ErrorIs(t, err, utils.ErrTokenInvalid)

	_, err = f.orch.PlaceOrder(ctx, momoOrder(3, ""))
	assert.ErrorIs(t, err, utils.ErrTokenInvalid)

	f.clock.Advance(2 * time.Minute)
	_, err = f.orch.PlaceOrder(ctx, momoOrder(3, grant.Token))
	assert.ErrorIs(t, err, utils.ErrTokenExpired)

	assert.Empty(t, f.pub.names())
}

func TestPlaceOrderNeedsActiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.orch.CreateOrFetchSession(ctx, 6)
	require.NoError(t, err)

	_, err = f.orch.ClearAllSessions(ctx)
	require.NoError(t, err)

	_, err = f.orch.PlaceOrder(ctx, momoOrder(6, grant.Token))
	assert.ErrorIs(t, err, utils.ErrSessionInvalid)
}

func TestPlaceOrderOnOccupiedTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.orch.CreateOrFetchSession(ctx, 9)
	require.NoError(t, err)
	_, err = f.orch.PlaceOrder(ctx, momoOrder(9, grant.Token))
	require.NoError(t, err)

	_, err = f.orch.PlaceOrder(ctx, momoOrder(9, grant.Token))
	assert.ErrorIs(t, err, utils.ErrTableOccupied)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grant, err := f.orch.CreateOrFetchSession(ctx, 1)
	require.NoError(t, err)

	empty := momoOrder(1, grant.Token)
	empty.Items = nil
	_, err = f.orch.PlaceOrder(ctx, empty)
	assert.ErrorIs(t, err, utils.ErrValidation)

	zero := momoOrder(1, grant.Token)
	zero.Items[0].Quantity = 0
	_, err = f.orch.PlaceOrder(ctx, zero)
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Contains(t, err.Error(), "items[0].quantity")

	nameless := momoOrder(1, grant.Token)
	nameless.Items = []OrderLine{{ItemNumber: 404, Quantity: 1, UnitPrice: 10}}
	_, err = f.orch.PlaceOrder(ctx, nameless)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestPlaceOrderSnapshotsCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grant, err := f.orch.CreateOrFetchSession(ctx, 4)
	require.NoError(t, err)

	req := momoOrder(4, grant.Token)
	req.Items = []OrderLine{
		{ItemNumber: 1, Name: "Cheap Momo", Quantity: 1, UnitPrice: 1},
		{ItemNumber: 99, Name: "Chef Special", Quantity: 3, UnitPrice: 500},
	}
	order, err := f.orch.PlaceOrder(ctx, req)
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Chicken Momo", order.Items[0].Name)
	assert.InDelta(t, 250.0, order.Items[0].UnitPrice, 0.001)
	assert.Equal(t, "Chef Special", order.Items[1].Name)
	assert.InDelta(t, 500.0, order.Items[1].UnitPrice, 0.001)
	assert.Equal(t, 3, order.Items[1].Quantity)
}

func TestPlaceOrderRejectsUnavailableItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.db.Create(&models.MenuItem{
		ItemNumber: 50, Name: "Seasonal Soup", Price: 150, Category: "Soups", IsAvailable: false,
	}).Error)

	grant, err := f.orch.CreateOrFetchSession(ctx, 5)
	require.NoError(t, err)

	req := momoOrder(5, grant.Token)
	req.Items = append(req.Items, OrderLine{ItemNumber: 50, Name: "Seasonal Soup", Quantity: 1, UnitPrice: 150})
	_, err = f.orch.PlaceOrder(ctx, req)
	require.ErrorIs(t, err, utils.ErrValidation)
	assert.Contains(t, err.Error(), "Seasonal Soup")

	orders, err := f.orch.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Nil(t, f.session(t, grant.SessionID).OrderID)
	assert.Empty(t, f.pub.names())

	order, err := f.orch.PlaceOrder(ctx, momoOrder(5, grant.Token))
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
}

func TestPlaceOrderReportsExpiryBeforeValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grant, err := f.orch.CreateOrFetchSession(ctx, 6)
	require.NoError(t, err)
	f.clock.Advance(3 * time.Minute)

	bad := momoOrder(6, grant.Token)
	bad.Items = nil
	_, err = f.orch.PlaceOrder(ctx, bad)
	assert.ErrorIs(t, err, utils.ErrTokenExpired)

	bad.Token = "garbage"
	_, err = f.orch.PlaceOrder(ctx, bad)
	assert.ErrorIs(t, err, utils.ErrTokenInvalid)
}

func TestSessionLastsFullTTLFromSubSecondIssue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clock.Advance(700 * time.Millisecond)
	issued := f.clock.Now()

	grant, err := f.orch.CreateOrFetchSession(ctx, 9)
	require.NoError(t, err)
	assert.True(t, grant.ExpiresAt.Equal(issued.Add(2*time.Minute)))

	f.clock.Advance(2*time.Minute - time.Millisecond)
	order, err := f.orch.PlaceOrder(ctx, momoOrder(9, grant.Token))
	require.NoError(t, err)
	assert.Equal(t, 9, order.TableNumber)
}

func TestQuantityHasNoUpperBound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grant, err := f.orch.CreateOrFetchSession(ctx, 11)
	require.NoError(t, err)

	req := momoOrder(11, grant.Token)
	req.Items[1].Quantity = 150
	order, err := f.orch.PlaceOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 150, order.Items[1].Quantity)
}

func TestStoreFailureSurfacesAsUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	start := time.Now()
	_, err = f.orch.CreateOrFetchSession(ctx, 3)
	assert.ErrorIs(t, err, utils.ErrStoreUnavailable)
	assert.Less(t, time.Since(start), f.orch.opts.StoreTimeout)
}

func TestBusyTableTimesOutAsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.orch.opts.StoreTimeout = 50 * time.Millisecond

	unlock, err := f.orch.locks.Lock(context.Background(), 4)
	require.NoError(t, err)
	defer unlock()

	start := time.Now()
	_, err = f.orch.CreateOrFetchSession(context.Background(), 4)
	assert.ErrorIs(t, err, utils.ErrStoreUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUpdateStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grant, err := f.orch.CreateOrFetchSession(ctx, 7)
	require.NoError(t, err)
	order, err := f.orch.PlaceOrder(ctx, momoOrder(7, grant.Token))
	require.NoError(t, err)

	_, err = f.orch.UpdateStatus(ctx, order.ID, "SERVED")
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.orch.UpdateStatus(ctx, "missing", "COOKING")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = f.orch.UpdateStatus(ctx, order.ID, "ready")
	require.NoError(t, err)

	_, err = f.orch.UpdateStatus(ctx, order.ID, "NEW")
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	same, err := f.orch.UpdateStatus(ctx, order.ID, "READY")
	require.NoError(t, err)
	assert.Equal(t, models.OrderReady, same.Status)

	assert.Equal(t, models.SessionActive, f.session(t, grant.SessionID).Status)
}

func TestCancelThenReorder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.orch.CreateOrFetchSession(ctx, 10)
	require.NoError(t, err)
	order, err := f.orch.PlaceOrder(ctx, momoOrder(10, grant.Token))
	require.NoError(t, err)

	result, err := f.orch.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, &CancelResult{OrderID: order.ID, TableNumber: 10}, result)

	session := f.session(t, grant.SessionID)
	assert.Equal(t, models.SessionCancelled, session.Status)
	assert.Nil(t, session.OrderID)

	last := f.pub.last()
	assert.Equal(t, kds.EventOrderCancelled, last.Event)
	assert.Equal(t, 10, last.TableNumber)

	_, err = f.orch.CancelOrder(ctx, order.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	next, err := f.orch.CreateOrFetchSession(ctx, 10)
	require.NoError(t, err)
	assert.NotEqual(t, grant.SessionID, next.SessionID)
	_, err = f.orch.PlaceOrder(ctx, momoOrder(10, next.Token))
	assert.NoError(t, err)
}

func TestCancelOnlyNewOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grant, err := f.orch.CreateOrFetchSession(ctx, 11)
	require.NoError(t, err)
	order, err := f.orch.PlaceOrder(ctx, momoOrder(11, grant.Token))
	require.NoError(t, err)
	_, err = f.orch.UpdateStatus(ctx, order.ID, "COOKING")
	require.NoError(t, err)

	_, err = f.orch.CancelOrder(ctx, order.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	still, err := f.orch.ActiveOrder(ctx, 11, grant.Token)
	require.NoError(t, err)
	require.NotNil(t, still)
	assert.Equal(t, order.ID, still.ID)
}

func TestStaleTokenRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	grant, err := f.orch.CreateOrFetchSession(ctx, 12)
	require.NoError(t, err)

	f.clock.Advance(100 * time.Second)
	renewed, err := f.orch.RefreshToken(ctx, 12, grant.SessionID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(2*time.Minute), renewed.ExpiresAt)
	assert.True(t, renewed.ExpiresAt.After(grant.ExpiresAt))

	f.clock.Advance(30 * time.Second)
	_, err = f.orch.PlaceOrder(ctx, momoOrder(12, grant.Token))
	assert.ErrorIs(t, err, utils.ErrTokenExpired)

	order, err := f.orch.PlaceOrder(ctx, momoOrder(12, renewed.Token))
	require.NoError(t, err)
	assert.Equal(t, 12, order.TableNumber)

	scan, err := f.orch.CreateOrFetchSession(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, grant.SessionID, scan.SessionID)
	assert.Equal(t, renewed.Token, scan.Token)
}

func TestRefreshTokenRejectsDeadSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grant, err := f.orch.CreateOrFetchSession(ctx, 13)
	require.NoError(t, err)

	_, err = f.orch.RefreshToken(ctx, 14, grant.SessionID)
	assert.ErrorIs(t, err, utils.ErrSessionInvalid)

	_, err = f.orch.RefreshToken(ctx, 13, "")
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.orch.RefreshToken(ctx, 13, "unknown-session")
	assert.ErrorIs(t, err, utils.ErrSessionInvalid)

	f.clock.Advance(2 * time.Minute)
	_, err = f.orch.RefreshToken(ctx, 13, grant.SessionID)
	assert.ErrorIs(t, err, utils.ErrSessionInvalid)
}

func TestActiveOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grant, err := f.orch.CreateOrFetchSession(ctx, 15)
	require.NoError(t, err)

	none, err := f.orch.ActiveOrder(ctx, 15, grant.Token)
	require.NoError(t, err)
	assert.Nil(t, none)

	placed, err := f.orch.PlaceOrder(ctx, momoOrder(15, grant.Token))
	require.NoError(t, err)

	found, err := f.orch.ActiveOrder(ctx, 15, grant.Token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, placed.ID, found.ID)

	_, err = f.orch.ActiveOrder(ctx, 16, grant.Token)
	assert.ErrorIs(t, err, utils.ErrTableMismatch)
}

func TestListOrdersFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orders, err := f.orch.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)

	_, err = f.orch.ListOrders(ctx, "bogus")
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestTablesBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.orch.CreateOrFetchSession(ctx, 1)
	require.NoError(t, err)
	grant, err := f.orch.CreateOrFetchSession(ctx, 2)
	require.NoError(t, err)
	_, err = f.orch.PlaceOrder(ctx, momoOrder(2, grant.Token))
	require.NoError(t, err)

	board, err := f.orch.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, board, 20)
	assert.Equal(t, models.TableReserved, board[0].State)
	assert.NotNil(t, board[0].SessionExpiresAt)
	assert.Equal(t, models.TableOccupied, board[1].State)
	require.NotNil(t, board[1].Order)
	assert.Equal(t, models.TableAvailable, board[2].State)
}

func TestReconcileAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	idle, err := f.orch.CreateOrFetchSession(ctx, 1)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	grant, err := f.orch.CreateOrFetchSession(ctx, 2)
	require.NoError(t, err)
	order, err := f.orch.PlaceOrder(ctx, momoOrder(2, grant.Token))
	require.NoError(t, err)
	// settle the order without going through UpdateStatus
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("status", models.OrderPaid).Error)

	f.clock.Advance(time.Minute)
	n, err := f.orch.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, models.SessionExpired, f.session(t, idle.SessionID).Status)
	assert.Equal(t, models.SessionCompleted, f.session(t, grant.SessionID).Status)

	n, err = f.orch.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClearAllSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, table := range []int{1, 2, 3} {
		_, err := f.orch.CreateOrFetchSession(ctx, table)
		require.NoError(t, err)
	}

	deleted, err := f.orch.ClearAllSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
	assert.Zero(t, f.activeSessions(t, 1))
}
