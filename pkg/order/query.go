package order

import (
	"context"
	"time"

	"github.com/example/shopcore/pkg/catalog"
	"github.com/example/shopcore/pkg/directory"
	"github.com/example/shopcore/pkg/models"
	"gorm.io/gorm"
)

const maxPageSize = 100

// ProductView is the minimal product display snapshot joined onto a line
// at read time. Price here is the catalog's current price, not the
// snapshot the line was bought at.
type ProductView struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

type LineView struct {
	ProductID string       `json:"product_id"`
	Product   *ProductView `json:"product,omitempty"`
	Quantity  int          `json:"quantity"`
	Price     float64      `json:"price"`
	Subtotal  float64      `json:"subtotal"`
}

type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type OrderView struct {
	ID          string     `json:"id"`
	User        UserView   `json:"user"`
	Items       []LineView `json:"items"`
	TotalAmount float64    `json:"total_amount"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Page struct {
	Data  []OrderView `json:"data"`
	Total int64       `json:"total"`
}

// Query is the read side: paginated listing and single-order retrieval,
// expanded with product and user display fields. It never mutates.
type Query struct {
	db        *gorm.DB
	service   *Service
	catalog   *catalog.Catalog
	directory *directory.Directory
}

func NewQuery(db *gorm.DB, service *Service, cat *catalog.Catalog, dir *directory.Directory) *Query {
	return &Query{db: db, service: service, catalog: cat, directory: dir}
}

// List returns the caller's orders, newest first, plus the total count
// for pagination.
func (q *Query) List(ctx context.Context, userID string, page, pageSize int) (*Page, error) {
	if page < 1 {
		return nil, invalidf(CodeBadPagination, "page must be a positive integer")
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return nil, invalidf(CodeBadPagination, "limit must be between 1 and %d", maxPageSize)
	}

	exists, err := q.directory.UserExists(ctx, userID)
	if err != nil {
		return nil, unavailable("user lookup", err)
	}
	if !exists {
		return nil, invalidf(CodeUserNotFound, "user %s does not exist", userID)
	}

	var total int64
	dbq := q.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if err := dbq.Count(&total).Error; err != nil {
		return nil, unavailable("order count", err)
	}

	var orders []models.Order
	offset := (page - 1) * pageSize
	if err := dbq.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&orders).Error; err != nil {
		return nil, unavailable("order listing", err)
	}

	views, err := q.expand(ctx, orders)
	if err != nil {
		return nil, err
	}
	return &Page{Data: views, Total: total}, nil
}

// Get retrieves one order with the same ownership rules as FindOne.
func (q *Query) Get(ctx context.Context, orderID, userID string) (*OrderView, error) {
	order, err := q.service.FindOne(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	views, err := q.expand(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// expand performs the read-side join: current product display fields per
// line and the owner's email per order.
func (q *Query) expand(ctx context.Context, orders []models.Order) ([]OrderView, error) {
	var productIDs []string
	seen := map[string]bool{}
	decoded := make([][]models.OrderLine, len(orders))

	for i, o := range orders {
		lines, err := o.Lines()
		if err != nil {
			return nil, unavailable("decode order items", err)
		}
		decoded[i] = lines
		for _, line := range lines {
			if !seen[line.ProductID] {
				seen[line.ProductID] = true
				productIDs = append(productIDs, line.ProductID)
			}
		}
	}

	products, err := q.catalog.FindProducts(ctx, productIDs)
	if err != nil {
		return nil, unavailable("product lookup", err)
	}

	emails := map[string]string{}
	views := make([]OrderView, len(orders))
	for i, o := range orders {
		email, ok := emails[o.UserID]
		if !ok {
			email, err = q.directory.UserEmail(ctx, o.UserID)
			if err != nil {
				return nil, unavailable("user lookup", err)
			}
			emails[o.UserID] = email
		}

		items := make([]LineView, len(decoded[i]))
		for j, line := range decoded[i] {
			item := LineView{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Price,
				Subtotal:  line.Subtotal,
			}
			if p, ok := products[line.ProductID]; ok {
				item.Product = &ProductView{Name: p.Name, Price: p.Price, Image: p.Image}
			}
			items[j] = item
		}

		views[i] = OrderView{
			ID:          o.ID,
			User:        UserView{ID: o.UserID, Email: email},
			Items:       items,
			TotalAmount: o.TotalAmount,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
		}
	}

	return views, nil
}
