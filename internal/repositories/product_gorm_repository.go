package repositories

import (
	"errors"
	"fmt"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Order("created_at").Find(&products).Error; err != nil {
		return nil, models.Persistence("get all products", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, models.ErrProductNotFound)
		}
		return nil, models.Persistence(fmt.Sprintf("get product %s", id), err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		return models.Persistence("create product", err)
	}
	return nil
}

// Update updates the catalog fields of an existing product. Stock is left alone.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "sku", "description", "price", "categories", "updated_at").
		Updates(product)
	if res.Error != nil {
		return models.Persistence("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", product.ID, models.ErrProductNotFound)
	}
	return nil
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return models.Persistence("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, models.ErrProductNotFound)
	}
	return nil
}

// GetStock returns the available quantity of a product.
func (r *GORMProductRepository) GetStock(id string) (int, error) {
	var product models.Product
	if err := r.db.Select("id", "stock").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("product with ID %s: %w", id, models.ErrProductNotFound)
		}
		return 0, models.Persistence(fmt.Sprintf("get stock of %s", id), err)
	}
	return product.Stock, nil
}

// AdjustStock adds delta to the product's stock in a single conditional
// update, so the row can never go negative even outside the ledger's locks.
func (r *GORMProductRepository) AdjustStock(id string, delta int) error {
	q := r.db.Model(&models.Product{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("stock >= ?", -delta)
	}
	res := q.UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return models.Persistence(fmt.Sprintf("adjust stock of %s", id), res.Error)
	}
	if res.RowsAffected == 0 {
		available, err := r.GetStock(id)
		if err != nil {
			return err
		}
		return &models.InsufficientStockError{ProductID: id, Requested: -delta, Available: available}
	}
	return nil
}
