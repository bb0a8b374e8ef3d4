package inventory_test

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/inventory"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	goleak.VerifyTestMain(m)
}

// memStore is a minimal Store with hooks for failure injection.
type memStore struct {
	mu         sync.Mutex
	stock      map[string]int
	minSeen    map[string]int
	failAdj    map[string]error
	failCredit map[string]error
	getHook    func(id string)
	adjustLog  []inventory.Line
}

func newMemStore(stock map[string]int) *memStore {
	s := &memStore{stock: stock, minSeen: map[string]int{}, failAdj: map[string]error{}, failCredit: map[string]error{}}
	for id, v := range stock {
		s.minSeen[id] = v
	}
	return s
}

func (s *memStore) GetStock(id string) (int, error) {
	if s.getHook != nil {
		s.getHook(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.stock[id]
	if !ok {
		return 0, fmt.Errorf("get stock %s: %w", id, models.ErrProductNotFound)
	}
	return v, nil
}

func (s *memStore) AdjustStock(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failAdj[id]; err != nil && delta < 0 {
		return err
	}
	if err := s.failCredit[id]; err != nil && delta > 0 {
		return err
	}
	v, ok := s.stock[id]
	if !ok {
		return models.ErrProductNotFound
	}
	if v+delta < 0 {
		return &models.InsufficientStockError{ProductID: id, Requested: -delta, Available: v}
	}
	s.stock[id] = v + delta
	if s.stock[id] < s.minSeen[id] {
		s.minSeen[id] = s.stock[id]
	}
	s.adjustLog = append(s.adjustLog, inventory.Line{ProductID: id, Quantity: delta})
	return nil
}

func (s *memStore) get(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[id]
}

func TestLedger_CheckAvailable(t *testing.T) {
	ledger := inventory.NewLedger(newMemStore(map[string]int{"p1": 3}))

	ok, err := ledger.CheckAvailable("p1", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CheckAvailable("p1", 4)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ledger.CheckAvailable("missing", 1)
	assert.ErrorIs(t, err, models.ErrProductNotFound)

	_, err = ledger.CheckAvailable("p1", 0)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestLedger_Reserve(t *testing.T) {
	store := newMemStore(map[string]int{"p1": 5})
	ledger := inventory.NewLedger(store)

	require.NoError(t, ledger.Reserve("p1", 2))
	assert.Equal(t, 3, store.get("p1"))

	err := ledger.Reserve("p1", 4)
	var shortage *models.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.ErrorIs(t, err, models.ErrInsufficientStock)
	assert.Equal(t, "p1", shortage.ProductID)
	assert.Equal(t, 4, shortage.Requested)
	assert.Equal(t, 3, shortage.Available)
	assert.Equal(t, 3, store.get("p1"), "failed reservation must not mutate stock")
}

func TestLedger_ReserveAll_AllOrNothing(t *testing.T) {
	store := newMemStore(map[string]int{"a": 10, "b": 1})
	ledger := inventory.NewLedger(store)

	err := ledger.ReserveAll([]inventory.Line{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 2},
	})

	var shortage *models.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, "b", shortage.ProductID)
	assert.Equal(t, 1, shortage.Available)
	assert.Equal(t, 10, store.get("a"))
	assert.Equal(t, 1, store.get("b"))
	assert.Empty(t, store.adjustLog)
}

func TestLedger_ReserveAll_ReportsFirstShortLineInRequestOrder(t *testing.T) {
	store := newMemStore(map[string]int{"z": 0, "a": 0})
	ledger := inventory.NewLedger(store)

	err := ledger.ReserveAll([]inventory.Line{
		{ProductID: "z", Quantity: 1},
		{ProductID: "a", Quantity: 1},
	})

	var shortage *models.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, "z", shortage.ProductID)
}

func TestLedger_ReserveAll_MergesDuplicateLines(t *testing.T) {
	store := newMemStore(map[string]int{"a": 4})
	ledger := inventory.NewLedger(store)

	err := ledger.ReserveAll([]inventory.Line{
		{ProductID: "a", Quantity: 3},
		{ProductID: "a", Quantity: 2},
	})
	var shortage *models.InsufficientStockError
	require.ErrorAs(t, err, &shortage)
	assert.Equal(t, 5, shortage.Requested)
	assert.Equal(t, 4, store.get("a"))

	require.NoError(t, ledger.ReserveAll([]inventory.Line{
		{ProductID: "a", Quantity: 1},
		{ProductID: "a", Quantity: 3},
	}))
	assert.Equal(t, 0, store.get("a"))
}

func TestLedger_ReserveAll_Validation(t *testing.T) {
	ledger := inventory.NewLedger(newMemStore(map[string]int{"a": 4}))

	tests := []struct {
		name  string
		lines []inventory.Line
	}{
		{name: "empty batch", lines: nil},
		{name: "zero quantity", lines: []inventory.Line{{ProductID: "a", Quantity: 0}}},
		{name: "negative quantity", lines: []inventory.Line{{ProductID: "a", Quantity: -1}}},
		{name: "blank id", lines: []inventory.Line{{ProductID: "  ", Quantity: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, ledger.ReserveAll(tc.lines), models.ErrValidation)
		})
	}
}

func TestLedger_ReserveAll_UnknownProductTouchesNothing(t *testing.T) {
	store := newMemStore(map[string]int{"a": 4})
	ledger := inventory.NewLedger(store)

	err := ledger.ReserveAll([]inventory.Line{
		{ProductID: "a", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	})
	assert.ErrorIs(t, err, models.ErrProductNotFound)
	assert.Equal(t, 4, store.get("a"))
}

func TestLedger_ReserveAll_StoreFailureRollsBackAppliedLines(t *testing.T) {
	store := newMemStore(map[string]int{"a": 5, "b": 5})
	boom := models.Persistence("adjust stock", errors.New("disk full"))
	store.failAdj["b"] = boom
	ledger := inventory.NewLedger(store)

	err := ledger.ReserveAll([]inventory.Line{
		{ProductID: "a", Quantity: 2},
		{ProductID: "b", Quantity: 2},
	})

	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Equal(t, 5, store.get("a"), "decrement of a must be rolled back")
	assert.Equal(t, 5, store.get("b"))
}

func TestLedger_CreditAndRestock(t *testing.T) {
	store := newMemStore(map[string]int{"a": 1})
	ledger := inventory.NewLedger(store)

	require.NoError(t, ledger.Credit("a", 2))
	require.NoError(t, ledger.Restock("a", 7))
	assert.Equal(t, 10, store.get("a"))

	assert.ErrorIs(t, ledger.Credit("a", 0), models.ErrValidation)
	assert.ErrorIs(t, ledger.Restock("missing", 1), models.ErrProductNotFound)

	err := ledger.CreditAll([]inventory.Line{
		{ProductID: "a", Quantity: 1},
		{ProductID: "missing", Quantity: 1},
	})
	assert.NoError(t, err, "credit to a deleted product is dropped")
	assert.Equal(t, 11, store.get("a"))
}

func TestLedger_CreditAll_ReportsStoreFailures(t *testing.T) {
	store := newMemStore(map[string]int{"a": 1, "b": 1})
	store.failCredit["b"] = models.Persistence("adjust stock of b", errors.New("disk full"))
	ledger := inventory.NewLedger(store)

	err := ledger.CreditAll([]inventory.Line{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 2},
	})
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Equal(t, 3, store.get("a"), "credits are applied per line")
	assert.Equal(t, 1, store.get("b"))
}

func TestLedger_ConcurrentReservationsNeverOversell(t *testing.T) {
	const stock = 10
	store := newMemStore(map[string]int{"scarce": stock})
	ledger := inventory.NewLedger(store)

	var succeeded, rejected int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Reserve("scarce", 1)
			switch {
			case err == nil:
				atomic.AddInt64(&succeeded, 1)
			case errors.Is(err, models.ErrInsufficientStock):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(stock), succeeded)
	assert.Equal(t, int64(90), rejected)
	assert.Equal(t, 0, store.get("scarce"))
}

func TestLedger_InterleavedReserveAndCreditStayInBounds(t *testing.T) {
	const initial = 20
	store := newMemStore(map[string]int{"a": initial, "b": initial})
	ledger := inventory.NewLedger(store)

	var credited int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lines := []inventory.Line{{ProductID: "a", Quantity: 1 + i%3}, {ProductID: "b", Quantity: 1}}
			if i%2 == 1 {
				lines[0], lines[1] = lines[1], lines[0]
			}
			if err := ledger.ReserveAll(lines); err != nil {
				return
			}
			if i%4 == 0 {
				if err := ledger.CreditAll(lines); err == nil {
					atomic.AddInt64(&credited, 1)
				}
			}
		}(i)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, store.minSeen["a"], 0)
	assert.GreaterOrEqual(t, store.minSeen["b"], 0)
	assert.GreaterOrEqual(t, store.get("a"), 0)
	assert.LessOrEqual(t, store.get("b"), initial)
}

func TestLedger_DisjointProductsDoNotBlock(t *testing.T) {
	store := newMemStore(map[string]int{"slow": 5, "fast": 5})
	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	store.getHook = func(id string) {
		if id == "slow" {
			once.Do(func() { close(entered) })
			<-release
		}
	}
	ledger := inventory.NewLedger(store)

	slowDone := make(chan error, 1)
	go func() { slowDone <- ledger.Reserve("slow", 1) }()
	<-entered

	fastDone := make(chan error, 1)
	go func() { fastDone <- ledger.Reserve("fast", 1) }()

	select {
	case err := <-fastDone:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reservation on an unrelated product was blocked")
	}

	close(release)
	assert.NoError(t, <-slowDone)
	assert.Equal(t, 4, store.get("slow"))
	assert.Equal(t, 4, store.get("fast"))
}
