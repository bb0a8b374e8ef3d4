package services

import (
	"fmt"
	"strings"

	"storefront/internal/categories"
	"storefront/internal/inventory"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// ProductService handles catalog management.
type ProductService struct {
	repo     repositories.ProductRepository
	ledger   *inventory.Ledger
	validate *validator.Validate
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, ledger *inventory.Ledger) *ProductService {
	return &ProductService{
		repo:     repo,
		ledger:   ledger,
		validate: NewValidator(),
	}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

func (s *ProductService) check(product *models.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	product.SKU = strings.TrimSpace(product.SKU)
	if err := s.validate.Struct(product); err != nil {
		return validationError(err)
	}
	if product.Price.IsNegative() {
		return models.Validationf("price must not be negative, got %s", product.Price)
	}
	if !product.Price.Equal(product.Price.Round(2)) {
		return models.Validationf("price must have at most 2 decimal places, got %s", product.Price)
	}
	if _, err := categories.Normalize(product.Categories); err != nil {
		return fmt.Errorf("invalid categories: %w", err)
	}
	return nil
}

// CreateProduct validates and stores a new product with its initial stock.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if err := s.check(product); err != nil {
		return err
	}
	return s.repo.Create(product)
}

// UpdateProduct updates catalog fields and price. Stock is never written here;
// use Restock for new stock.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if err := s.check(product); err != nil {
		return err
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// Restock adds received units to a product's available stock.
func (s *ProductService) Restock(id string, quantity int) (*models.Product, error) {
	if err := s.ledger.Restock(id, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByID(id)
}

// ProductCategories returns the normalized category tree of one product.
func (s *ProductService) ProductCategories(id string) ([]categories.Category, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return categories.Normalize(product.Categories)
}

// CategoryTree merges the category trees of every product in the catalog.
func (s *ProductService) CategoryTree() ([]categories.Category, error) {
	products, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	trees := make([][]categories.Category, 0, len(products))
	for _, p := range products {
		tree, err := categories.Normalize(p.Categories)
		if err != nil {
			return nil, fmt.Errorf("product %s has invalid categories: %w", p.ID, err)
		}
		trees = append(trees, tree)
	}
	return categories.Merge(trees...), nil
}
