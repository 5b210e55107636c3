package inventory

import (
	"context"
	"errors"

	"github.com/example/shopcore/pkg/models"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned by Reserve when the conditional
// decrement finds less stock than requested.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrUnknownProduct is returned when the product row does not exist at all.
var ErrUnknownProduct = errors.New("unknown product")

// Ledger owns stock counters. Reserve is a single conditional decrement,
// so two racing reservations for the last units cannot both succeed and
// stock can never go negative. The ledger knows nothing about orders.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the given transaction handle.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	return &Ledger{db: tx}
}

// Reserve decrements stock by quantity if and only if at least that much
// is available right now.
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	res := l.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := l.db.WithContext(ctx).Model(&models.Product{}).
			Where("id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUnknownProduct
		}
		return ErrInsufficientStock
	}
	return nil
}

// Release increments stock by quantity, undoing a prior reservation.
func (l *Ledger) Release(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return errors.New("quantity must be at least 1")
	}
	res := l.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUnknownProduct
	}
	return nil
}

// Stock reads the current counter, mainly for diagnostics and tests.
func (l *Ledger) Stock(ctx context.Context, productID string) (int, error) {
	var product models.Product
	if err := l.db.WithContext(ctx).Select("stock").Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUnknownProduct
		}
		return 0, err
	}
	return product.Stock, nil
}
