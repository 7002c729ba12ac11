package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sufianahinfo/sufianah-pos/internal/inventory"
)

type mockRepository struct {
	m        sync.RWMutex
	products map[int64]*Product
	err      error
	calls    int
}

func (m *mockRepository) GetAllProducts(context.Context) ([]*Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*Product
	for _, p := range m.products {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockRepository) GetProduct(_ context.Context, id int64) (*Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepository) Close() error { return nil }

func (m *mockRepository) callCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.calls
}

type mockCache struct {
	m        sync.RWMutex
	products map[int64]*Product
	err      error
}

func newMockCache() *mockCache {
	return &mockCache{products: make(map[int64]*Product)}
}

func (m *mockCache) Get(_ context.Context, id int64) (*Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	return p, nil
}

func (m *mockCache) Set(_ context.Context, product *Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[product.ID] = product
	return m.err
}

func (m *mockCache) Delete(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.products, id)
	return m.err
}

func (m *mockCache) has(id int64) bool {
	m.m.RLock()
	defer m.m.RUnlock()
	_, ok := m.products[id]
	return ok
}

func TestGetSnapshot_Success(t *testing.T) {
	repo := &mockRepository{products: map[int64]*Product{
		1: {ID: 1, Name: "Basmati Rice 5kg", Code: "RICE-5KG", UnitPrice: 1450},
	}}
	cache := newMockCache()
	stocks := inventory.NewStore()
	stocks.SetStock(1, 80)

	sut := NewService(repo, cache, stocks)
	snap, err := sut.GetSnapshot(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), snap.ID)
	assert.Equal(t, "RICE-5KG", snap.Code)
	assert.Equal(t, float64(1450), snap.UnitPrice)
	assert.Equal(t, 80, snap.Stock)

	require.Eventually(t, func() bool {
		return cache.has(1)
	}, 100*time.Millisecond, 10*time.Millisecond, "product was not set in cache")
}

func TestGetSnapshot_CacheHit_SkipsRepo(t *testing.T) {
	repo := &mockRepository{products: map[int64]*Product{}}
	cache := newMockCache()
	cache.products[1] = &Product{ID: 1, Name: "Cached", UnitPrice: 10}
	stocks := inventory.NewStore()
	stocks.SetStock(1, 5)

	sut := NewService(repo, cache, stocks)
	snap, err := sut.GetSnapshot(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Cached", snap.Name)
	assert.Equal(t, 0, repo.callCount())
}

func TestGetSnapshot_StockAlwaysLive(t *testing.T) {
	repo := &mockRepository{products: map[int64]*Product{
		1: {ID: 1, Name: "Basmati Rice 5kg", UnitPrice: 1450},
	}}
	cache := newMockCache()
	stocks := inventory.NewStore()
	stocks.SetStock(1, 80)

	sut := NewService(repo, cache, stocks)

	snap, err := sut.GetSnapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 80, snap.Stock)

	// A decrement between lookups must be visible even on a cache hit.
	require.NoError(t, stocks.ConditionalDecrement([]inventory.Adjustment{{ProductID: 1, Quantity: 30}}))

	snap, err = sut.GetSnapshot(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.Stock)
}

func TestGetSnapshot_ProductNotFound(t *testing.T) {
	repo := &mockRepository{products: map[int64]*Product{}}
	sut := NewService(repo, newMockCache(), inventory.NewStore())

	_, err := sut.GetSnapshot(context.Background(), 42)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetSnapshot_BreakerOpensAfterRepoFailures(t *testing.T) {
	repo := &mockRepository{err: fmt.Errorf("database down")}
	sut := NewService(repo, newMockCache(), inventory.NewStore())

	for i := 0; i < 5; i++ {
		_, err := sut.GetSnapshot(context.Background(), 1)
		require.Error(t, err)
	}

	calls := repo.callCount()
	_, err := sut.GetSnapshot(context.Background(), 1)
	require.Error(t, err)
	// Breaker is open: the repo is no longer hit.
	assert.Equal(t, calls, repo.callCount())
}

func TestListProducts_AnnotatesStock(t *testing.T) {
	repo := &mockRepository{products: map[int64]*Product{
		1: {ID: 1, Name: "Rice", Stock: 80},
		2: {ID: 2, Name: "Oil", Stock: 150},
	}}
	stocks := inventory.NewStore()
	stocks.SetStock(1, 42)

	sut := NewService(repo, newMockCache(), stocks)
	products, err := sut.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	byID := make(map[int64]*Product)
	for _, p := range products {
		byID[p.ID] = p
	}
	assert.Equal(t, 42, byID[1].Stock)
	// Product 2 is not in the inventory store, its persisted level shows.
	assert.Equal(t, 150, byID[2].Stock)
}

func TestSeedStocks(t *testing.T) {
	repo := &mockRepository{products: map[int64]*Product{
		1: {ID: 1, Stock: 80},
		2: {ID: 2, Stock: 150},
	}}
	stocks := inventory.NewStore()

	sut := NewService(repo, newMockCache(), stocks)
	require.NoError(t, sut.SeedStocks(context.Background()))

	stock, err := stocks.GetStock(1)
	require.NoError(t, err)
	assert.Equal(t, 80, stock)
	stock, err = stocks.GetStock(2)
	require.NoError(t, err)
	assert.Equal(t, 150, stock)
}
