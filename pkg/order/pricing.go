package order

import (
	"context"
	"errors"

	"github.com/example/shopcore/pkg/catalog"
	"github.com/example/shopcore/pkg/directory"
	"github.com/example/shopcore/pkg/models"
	"github.com/shopspring/decimal"
)

// LineRequest is a caller-supplied (product, quantity) pair. No price:
// client-supplied prices are never trusted.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// Pricer validates requested lines against the catalog and prices them
// from a fresh snapshot. It performs no mutation.
type Pricer struct {
	catalog   *catalog.Catalog
	directory *directory.Directory
}

func NewPricer(cat *catalog.Catalog, dir *directory.Directory) *Pricer {
	return &Pricer{catalog: cat, directory: dir}
}

// ValidateAndPrice checks every line in input order, short-circuiting on
// the first failure, and returns priced lines plus the order total. The
// total is rounded half-up to 2 places once at the end, not per line.
func (p *Pricer) ValidateAndPrice(ctx context.Context, userID string, requested []LineRequest) ([]models.OrderLine, float64, error) {
	if len(requested) == 0 {
		return nil, 0, invalidf(CodeBadRequest, "order must contain at least one item")
	}

	exists, err := p.directory.UserExists(ctx, userID)
	if err != nil {
		return nil, 0, unavailable("user lookup", err)
	}
	if !exists {
		return nil, 0, invalidf(CodeUserNotFound, "user %s does not exist", userID)
	}

	lines := make([]models.OrderLine, 0, len(requested))
	total := decimal.Zero

	for _, req := range requested {
		if req.Quantity < 1 {
			return nil, 0, invalidf(CodeBadRequest, "quantity must be at least 1")
		}

		product, err := p.catalog.FindProduct(ctx, req.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, 0, invalidf(CodeProductNotFound, "product %s does not exist", req.ProductID)
			}
			return nil, 0, unavailable("product lookup", err)
		}
		if !product.IsActive {
			return nil, 0, invalidf(CodeProductInactive, "product %s is not available", product.Name)
		}
		if product.Stock < req.Quantity {
			return nil, 0, invalidf(CodeInsufficientStock,
				"insufficient stock for product %s: available %d, requested %d",
				product.Name, product.Stock, req.Quantity)
		}

		price := decimal.NewFromFloat(product.Price)
		subtotal := price.Mul(decimal.NewFromInt(int64(req.Quantity)))
		total = total.Add(subtotal)

		lines = append(lines, models.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    req.Quantity,
			Price:       product.Price,
			Subtotal:    subtotal.InexactFloat64(),
		})
	}

	return lines, total.Round(2).InexactFloat64(), nil
}
