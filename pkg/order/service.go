package order

import (
	"context"
	"errors"
	"time"

	"github.com/example/shopcore/pkg/inventory"
	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/notify"
	"github.com/example/shopcore/pkg/repository"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service owns the Order entity and its state machine. Creation prices
// lines, reserves stock and inserts the order inside one transaction, so
// a multi-line order either reserves everything or nothing. Cache, audit
// and notifications are best effort and may be nil.
type Service struct {
	db       *gorm.DB
	pricer   *Pricer
	ledger   *inventory.Ledger
	cache    *repository.RedisRepository
	audit    *repository.MongoRepository
	notifier *notify.Notifier
	logger   *zap.Logger
}

func NewService(db *gorm.DB, pricer *Pricer, ledger *inventory.Ledger,
	cache *repository.RedisRepository, audit *repository.MongoRepository,
	notifier *notify.Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:       db,
		pricer:   pricer,
		ledger:   ledger,
		cache:    cache,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
	}
}

// Create validates and prices the requested lines, then reserves stock
// for every line and persists the order as pending. The owner is always
// the authenticated caller; a user field in a request body is never read.
func (s *Service) Create(ctx context.Context, userID string, requested []LineRequest) (*models.Order, error) {
	lines, total, err := s.pricer.ValidateAndPrice(ctx, userID, requested)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	order := &models.Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		TotalAmount: total,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := order.SetLines(lines); err != nil {
		return nil, unavailable("encode order items", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		for _, line := range lines {
			if err := ledger.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
				switch {
				case errors.Is(err, inventory.ErrInsufficientStock):
					return invalidf(CodeInsufficientStock,
						"insufficient stock for product %s", line.ProductName)
				case errors.Is(err, inventory.ErrUnknownProduct):
					return invalidf(CodeProductNotFound,
						"product %s does not exist", line.ProductID)
				}
				return unavailable("stock reservation", err)
			}
		}
		if err := tx.Create(order).Error; err != nil {
			return unavailable("order insert", err)
		}
		return nil
	})
	if err != nil {
		if KindOf(err) != KindUnknown {
			return nil, err
		}
		return nil, unavailable("create order", err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Float64("total_amount", total))

	s.cacheOrder(ctx, order)
	s.recordEvent(order, repository.ActionOrderCreated, bson.M{"total_amount": total})
	if s.notifier != nil {
		s.notifier.Send(&notify.OrderCreated{OrderID: order.ID, UserID: userID, Total: total})
	}

	return order, nil
}

// FindOne loads an order. A non-empty userID enforces ownership; an empty
// one is an internal/administrative call and skips the check.
func (s *Service) FindOne(ctx context.Context, id, userID string) (*models.Order, error) {
	if id == "" {
		return nil, invalidf(CodeBadRequest, "order ID is required")
	}

	var order models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf(CodeOrderNotFound, "order %s does not exist", id)
		}
		return nil, unavailable("order lookup", err)
	}

	if userID != "" && order.UserID != userID {
		return nil, forbidden("you can only access your own orders")
	}

	return &order, nil
}

// Cancel transitions a pending order to cancelled and restores every
// line's stock. The status flip is a conditional update on pending, so
// of two racing cancels exactly one wins; the loser sees InvalidState and
// stock is released exactly once. Flip and release share one transaction.
func (s *Service) Cancel(ctx context.Context, id, userID string) (*models.Order, error) {
	order, err := s.FindOne(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.StatusCancelled:
		return nil, invalidState("order is already cancelled")
	case models.StatusCompleted:
		return nil, invalidState("cannot cancel a completed order")
	}

	lines, err := order.Lines()
	if err != nil {
		return nil, unavailable("decode order items", err)
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, models.StatusPending).
			Updates(map[string]interface{}{"status": models.StatusCancelled, "updated_at": now})
		if res.Error != nil {
			return unavailable("status update", res.Error)
		}
		if res.RowsAffected == 0 {
			// another caller transitioned the order first
			return invalidState("order is already cancelled")
		}

		ledger := s.ledger.WithTx(tx)
		for _, line := range lines {
			if err := ledger.Release(ctx, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, inventory.ErrUnknownProduct) {
					// product removed from the catalog since ordering;
					// nothing left to restore stock into
					s.logger.Warn("Skipping stock release for missing product",
						zap.String("order_id", id),
						zap.String("product_id", line.ProductID))
					continue
				}
				return unavailable("stock release", err)
			}
		}
		return nil
	})
	if err != nil {
		if KindOf(err) != KindUnknown {
			return nil, err
		}
		return nil, unavailable("cancel order", err)
	}

	order.Status = models.StatusCancelled
	order.UpdatedAt = now

	s.logger.Info("Order cancelled",
		zap.String("order_id", id),
		zap.String("user_id", order.UserID))

	s.invalidateOrder(ctx, id)
	s.recordEvent(order, repository.ActionOrderCancelled, nil)
	if s.notifier != nil {
		s.notifier.Send(&notify.OrderCancelled{OrderID: id, UserID: order.UserID})
	}

	return order, nil
}

// Remove permanently deletes an order. Only cancelled orders qualify:
// deleting pending or completed orders would discard stock-impacting
// history.
func (s *Service) Remove(ctx context.Context, id, userID string) error {
	order, err := s.FindOne(ctx, id, userID)
	if err != nil {
		return err
	}

	if order.Status != models.StatusCancelled {
		return invalidState("only cancelled orders can be deleted")
	}

	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return unavailable("order delete", res.Error)
	}
	if res.RowsAffected == 0 {
		// vanished between load and delete
		return notFoundf(CodeOrderNotFound, "order %s does not exist", id)
	}

	s.logger.Info("Order deleted",
		zap.String("order_id", id),
		zap.String("user_id", order.UserID))

	s.invalidateOrder(ctx, id)
	s.recordEvent(order, repository.ActionOrderDeleted, nil)
	if s.notifier != nil {
		s.notifier.Send(&notify.OrderDeleted{OrderID: id, UserID: order.UserID})
	}

	return nil
}

func (s *Service) cacheOrder(ctx context.Context, order *models.Order) {
	if s.cache == nil {
		return
	}
	err := s.cache.CacheOrder(ctx, &repository.OrderCache{
		ID:          order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
	})
	if err != nil {
		s.logger.Warn("Failed to cache order", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (s *Service) invalidateOrder(ctx context.Context, orderID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOrder(ctx, orderID); err != nil {
		s.logger.Warn("Failed to invalidate order cache", zap.String("order_id", orderID), zap.Error(err))
	}
}

func (s *Service) recordEvent(order *models.Order, action string, data bson.M) {
	if s.audit == nil {
		return
	}
	go s.audit.RecordOrderEvent(context.Background(), &repository.OrderEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Action:  action,
		Data:    data,
	})
}
