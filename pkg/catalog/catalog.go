package catalog

import (
	"context"
	"errors"

	"github.com/example/shopcore/pkg/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = errors.New("product not found")

// Catalog is the read side of the product table. The order core reads
// name, price, stock and is_active through it; stock mutation belongs to
// the inventory ledger.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindProducts loads the products for a set of IDs, keyed by ID. Missing
// IDs are simply absent from the result.
func (c *Catalog) FindProducts(ctx context.Context, ids []string) (map[string]models.Product, error) {
	if len(ids) == 0 {
		return map[string]models.Product{}, nil
	}
	var products []models.Product
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}
