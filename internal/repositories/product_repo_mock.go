package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]models.Product),
	}
}

func copyProduct(p models.Product) *models.Product {
	p.Categories = append([]string(nil), p.Categories...)
	return &p
}

// GetAll returns all products ordered by creation time.
func (r *MockProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, *copyProduct(p))
	}
	sort.Slice(productList, func(i, j int) bool {
		return productList[i].CreatedAt.Before(productList[j].CreatedAt)
	})
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, models.ErrProductNotFound)
	}
	return copyProduct(product), nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("product with ID %s: %w", product.ID, models.ErrConflict)
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *copyProduct(*product)
	return nil
}

// Update modifies the catalog fields of an existing product, keeping its stock.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", product.ID, models.ErrProductNotFound)
	}
	existing.Name = product.Name
	existing.SKU = product.SKU
	existing.Description = product.Description
	existing.Price = product.Price
	existing.Categories = append([]string(nil), product.Categories...)
	existing.UpdatedAt = time.Now()
	r.products[product.ID] = existing
	return nil
}

// Delete removes a product by its ID.
func (r *MockProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, models.ErrProductNotFound)
	}
	delete(r.products, id)
	return nil
}

// GetStock returns the available quantity of a product.
func (r *MockProductRepository) GetStock(id string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return 0, fmt.Errorf("product with ID %s: %w", id, models.ErrProductNotFound)
	}
	return product.Stock, nil
}

// AdjustStock adds delta to the product's stock, refusing to go below zero.
func (r *MockProductRepository) AdjustStock(id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", id, models.ErrProductNotFound)
	}
	if product.Stock+delta < 0 {
		return &models.InsufficientStockError{ProductID: id, Requested: -delta, Available: product.Stock}
	}
	product.Stock += delta
	r.products[id] = product
	return nil
}
