package models

import (
	"encoding/json"
	"time"
)

// Order statuses. "completed" is reserved: nothing transitions into it yet,
// but cancel and delete must still treat it as terminal.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

type Order struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Items       string     `gorm:"type:text" json:"-"` // JSON-encoded []OrderLine
	TotalAmount float64    `gorm:"type:decimal(10,2)" json:"total_amount"`
	Status      string     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `gorm:"index" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderLine is one priced line within an order. Price and subtotal are
// snapshots taken at creation time and never change afterwards.
type OrderLine struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

// SetLines serializes lines into the Items column, preserving input order.
func (o *Order) SetLines(lines []OrderLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	o.Items = string(data)
	return nil
}

// Lines decodes the Items column back into line values.
func (o *Order) Lines() ([]OrderLine, error) {
	var lines []OrderLine
	if err := json.Unmarshal([]byte(o.Items), &lines); err != nil {
		return nil, err
	}
	return lines, nil
}
