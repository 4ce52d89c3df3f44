package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-inventory/internal/allocation"
	"github.com/iliyamo/train-ticket-inventory/internal/allocation/alloctest"
	"github.com/iliyamo/train-ticket-inventory/internal/model"
	"github.com/iliyamo/train-ticket-inventory/internal/repository"
	"github.com/iliyamo/train-ticket-inventory/internal/service"
)

var testSegment = model.Segment{TrainID: "G35", Departure: "Beijing South", Arrival: "Nanjing South"}

type profileFunc func(ctx context.Context, ids []string) ([]model.Passenger, error)

func (f profileFunc) ProfilesByIDs(ctx context.Context, ids []string) ([]model.Passenger, error) {
	return f(ctx, ids)
}

type priceFunc func(ctx context.Context, seg model.Segment, class model.SeatClass) (uint32, error)

func (f priceFunc) Price(ctx context.Context, seg model.Segment, class model.SeatClass) (uint32, error) {
	return f(ctx, seg, class)
}

func okProfiles(ctx context.Context, ids []string) ([]model.Passenger, error) {
	out := make([]model.Passenger, len(ids))
	for i, id := range ids {
		out[i] = model.Passenger{ID: id, RealName: "Passenger " + id}
	}
	return out, nil
}

// memOrders is an in-memory OrderStore mirroring the MySQL
// repository's error contract.
type memOrders struct {
	mu        sync.Mutex
	orders    map[string]model.Order
	items     map[string][]model.OrderItem
	createErr error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]model.Order), items: make(map[string][]model.OrderItem)}
}

func (m *memOrders) Create(ctx context.Context, order model.Order, items []model.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.SN] = order
	m.items[order.SN] = append([]model.OrderItem(nil), items...)
	return nil
}

func (m *memOrders) Status(ctx context.Context, orderSN string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderSN]
	if !ok {
		return "", repository.ErrOrderNotFound
	}
	return o.Status, nil
}

func (m *memOrders) UpdateStatusIf(ctx context.Context, orderSN, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderSN]
	if !ok || o.Status != from {
		return repository.ErrStatusConflict
	}
	o.Status = to
	m.orders[orderSN] = o
	return nil
}

func (m *memOrders) Items(ctx context.Context, orderSN string) ([]model.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OrderItem(nil), m.items[orderSN]...), nil
}

func (m *memOrders) Get(ctx context.Context, orderSN string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderSN]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

type purchaseFixture struct {
	ledger  *alloctest.Ledger
	orders  *memOrders
	service *service.TicketService
}

func newPurchaseFixture(t *testing.T, profiles service.ProfileClient, prices service.PriceLookup) *purchaseFixture {
	t.Helper()
	ledger := alloctest.NewLedger()
	layout, ok := allocation.LayoutFor(model.VehicleHighSpeed, model.ClassSecond)
	require.True(t, ok)
	ledger.SeedLayout(testSegment, model.ClassSecond, layout, 1)

	d, err := allocation.DefaultDispatcher(ledger)
	require.NoError(t, err)
	coord := allocation.NewCoordinator(d, ledger, allocation.PoolConfig{Workers: 2, TaskTimeout: time.Second})
	t.Cleanup(coord.Close)

	orders := newMemOrders()
	return &purchaseFixture{
		ledger:  ledger,
		orders:  orders,
		service: service.NewTicketService(coord, profiles, prices, orders),
	}
}

func secondClassFare(cents uint32) priceFunc {
	return func(ctx context.Context, seg model.Segment, class model.SeatClass) (uint32, error) {
		return cents, nil
	}
}

func purchaseRequest(ids ...string) service.PurchaseRequest {
	passengers := make([]model.PassengerSeatRequest, len(ids))
	for i, id := range ids {
		passengers[i] = model.PassengerSeatRequest{PassengerID: id, Class: model.ClassSecond}
	}
	return service.PurchaseRequest{
		UserID:     "u1",
		Vehicle:    model.VehicleHighSpeed,
		Segment:    testSegment,
		Passengers: passengers,
	}
}

func TestPurchase(t *testing.T) {
	f := newPurchaseFixture(t, profileFunc(okProfiles), secondClassFare(55400))

	got, err := f.service.Purchase(context.Background(), purchaseRequest("p1", "p2"))
	require.NoError(t, err)
	require.NotEmpty(t, got.OrderSN)
	require.Len(t, got.Assignments, 2)
	require.Len(t, got.Passengers, 2)
	assert.Equal(t, uint32(110800), got.TotalAmountCents)
	for _, a := range got.Assignments {
		assert.Equal(t, uint32(55400), a.AmountCents)
	}

	status, err := f.orders.Status(context.Background(), got.OrderSN)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPendingPayment, status)

	items, err := f.orders.Items(context.Background(), got.OrderSN)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].PassengerID)
	assert.Equal(t, uint32(55400), items[0].AmountCents)

	assert.Equal(t, 2, f.ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
}

func TestPurchaseAllocationFailurePassesThrough(t *testing.T) {
	f := newPurchaseFixture(t, profileFunc(okProfiles), secondClassFare(55400))

	// One more passenger than one carriage holds.
	ids := make([]string, 91)
	for i := range ids {
		ids[i] = "p"
	}
	_, err := f.service.Purchase(context.Background(), purchaseRequest(ids...))

	var insufficient *allocation.InsufficientError
	require.ErrorAs(t, err, &insufficient)
	var remote *service.RemoteError
	assert.False(t, errors.As(err, &remote))
	assert.Equal(t, 0, f.ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
}

func TestPurchaseProfileFailureKeepsSeatsCommitted(t *testing.T) {
	profileErr := errors.New("profile service unreachable")
	failing := profileFunc(func(ctx context.Context, ids []string) ([]model.Passenger, error) {
		return nil, profileErr
	})
	f := newPurchaseFixture(t, failing, secondClassFare(55400))

	_, err := f.service.Purchase(context.Background(), purchaseRequest("p1", "p2"))

	var remote *service.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "passenger-profile", remote.Dependency)
	assert.Len(t, remote.Committed, 2)
	assert.True(t, errors.Is(err, profileErr))

	// The seats stay locked; rolling back is the caller's call.
	assert.Equal(t, 2, f.ledger.CountByStatus(testSegment, model.ClassSecond, model.SeatLocked))
}

func TestPurchasePriceFailure(t *testing.T) {
	failing := priceFunc(func(ctx context.Context, seg model.Segment, class model.SeatClass) (uint32, error) {
		return 0, repository.ErrPriceNotFound
	})
	f := newPurchaseFixture(t, profileFunc(okProfiles), failing)

	_, err := f.service.Purchase(context.Background(), purchaseRequest("p1"))

	var remote *service.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "price-lookup", remote.Dependency)
	assert.True(t, errors.Is(err, repository.ErrPriceNotFound))
}

func TestPurchaseOrderStoreFailure(t *testing.T) {
	f := newPurchaseFixture(t, profileFunc(okProfiles), secondClassFare(55400))
	f.orders.createErr = errors.New("deadlock")

	_, err := f.service.Purchase(context.Background(), purchaseRequest("p1"))

	var remote *service.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "order-store", remote.Dependency)
	assert.Len(t, remote.Committed, 1)
}

func TestPurchaseEmptyPassengerList(t *testing.T) {
	f := newPurchaseFixture(t, profileFunc(okProfiles), secondClassFare(55400))
	_, err := f.service.Purchase(context.Background(), purchaseRequest())
	assert.Error(t, err)
}
