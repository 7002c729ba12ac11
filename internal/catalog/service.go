package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/sufianahinfo/sufianah-pos/internal/inventory"
	"github.com/sufianahinfo/sufianah-pos/internal/pos"
	"golang.org/x/sync/singleflight"
)

// Service resolves product identifiers into the snapshots the cart
// engine consumes: master data from the catalog (cached), stock from the
// live inventory store.
type Service struct {
	repo    ProductRepository
	cache   ProductCache
	stocks  *inventory.Store
	breaker *gobreaker.CircuitBreaker[*Product]
	sfg     singleflight.Group // Prevents cache stampede
}

func NewService(repo ProductRepository, cache ProductCache, stocks *inventory.Store) *Service {
	breaker := gobreaker.NewCircuitBreaker[*Product](gobreaker.Settings{
		Name:    "catalog-db",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Service{
		repo:    repo,
		cache:   cache,
		stocks:  stocks,
		breaker: breaker,
	}
}

func (s *Service) getProduct(ctx context.Context, id int64) (*Product, error) {
	v, err, _ := s.sfg.Do(fmt.Sprintf("%d", id), func() (interface{}, error) {
		product, err := s.cache.Get(ctx, id)
		if err == nil {
			return product, nil
		}

		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		product, errGet := s.breaker.Execute(func() (*Product, error) {
			return s.repo.GetProduct(ctx, id)
		})
		if errGet != nil {
			return nil, errGet
		}

		// set cache
		go func() {
			if errSet := s.cache.Set(context.Background(), product); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return product, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*Product), nil
}

// GetSnapshot is the catalog collaborator of the cart engine: current
// name, code, price and available stock for one product.
func (s *Service) GetSnapshot(ctx context.Context, id int64) (pos.ProductSnapshot, error) {
	product, err := s.getProduct(ctx, id)
	if err != nil {
		return pos.ProductSnapshot{}, err
	}

	stock, err := s.stocks.GetStock(id)
	if err != nil {
		return pos.ProductSnapshot{}, err
	}

	return pos.ProductSnapshot{
		ID:        product.ID,
		Name:      product.Name,
		Code:      product.Code,
		UnitPrice: product.UnitPrice,
		Stock:     stock,
	}, nil
}

// ListProducts returns all products with their live stock levels.
func (s *Service) ListProducts(ctx context.Context) ([]*Product, error) {
	products, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		if stock, errStock := s.stocks.GetStock(p.ID); errStock == nil {
			p.Stock = stock
		}
	}
	return products, nil
}

// SeedStocks loads persisted stock levels into the inventory store at
// startup.
func (s *Service) SeedStocks(ctx context.Context) error {
	products, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products for stock seeding: %w", err)
	}

	for _, p := range products {
		s.stocks.SetStock(p.ID, p.Stock)
	}
	return nil
}
