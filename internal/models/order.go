package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCanceled  OrderStatus = "canceled"
)

// OrderLine is a snapshot of a catalog Item at the moment it was added to an
// order, plus the order-specific quantity and removal marker. The line's
// Removed field shadows the snapshot's: a removed line stays in the order for
// audit history, it just no longer counts toward the total.
type OrderLine struct {
	Item
	Quantity int  `json:"quantity"`
	Removed  bool `json:"removed"`
}

type Order struct {
	ID           uint        `json:"id,omitempty"`
	Items        []OrderLine `json:"items"`
	TotalPrice   float64     `json:"totalPrice"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
	Status       OrderStatus `json:"status"`
	CustomerName string      `json:"customerName,omitempty"`
	Paid         bool        `json:"paid"`
	Note         string      `json:"note,omitempty"`
	User         string      `json:"user,omitempty"`
}

// ActiveTotal sums price x quantity over lines not marked removed.
func (o *Order) ActiveTotal() float64 {
	total := 0.0
	for _, line := range o.Items {
		if line.Removed {
			continue
		}
		qty := line.Quantity
		if qty == 0 {
			qty = 1
		}
		total += line.Price * float64(qty)
	}
	return total
}

// OrderRow is the persisted form of an Order. The line list is stored as a
// single JSON blob column, timestamps as sortable strings, paid as 0/1.
type OrderRow struct {
	ID           uint   `gorm:"primaryKey"`
	Items        string `gorm:"type:text"`
	TotalPrice   float64
	CreatedAt    string
	UpdatedAt    string
	Status       string
	CustomerName string
	Paid         int
	Note         string
	User         string
}

func (OrderRow) TableName() string { return "orders" }

func NewOrderRow(order *Order) (*OrderRow, error) {
	lines := order.Items
	if lines == nil {
		lines = []OrderLine{}
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order lines: %w", err)
	}
	return &OrderRow{
		ID:           order.ID,
		Items:        string(encoded),
		TotalPrice:   order.TotalPrice,
		CreatedAt:    FormatTimestamp(order.CreatedAt),
		UpdatedAt:    FormatTimestamp(order.UpdatedAt),
		Status:       string(order.Status),
		CustomerName: order.CustomerName,
		Paid:         boolToInt(order.Paid),
		Note:         order.Note,
		User:         order.User,
	}, nil
}

// OrderTombstoneRow marks an order the user deleted locally while its
// server-side delete is still outstanding. The pull pass must not resurrect
// these ids; the push pass finishes the delete and clears the row.
type OrderTombstoneRow struct {
	OrderID   uint   `gorm:"primaryKey"`
	DeletedAt string
}

func (OrderTombstoneRow) TableName() string { return "deleted_orders" }

func (r *OrderRow) Order() (*Order, error) {
	var lines []OrderLine
	if r.Items != "" {
		if err := json.Unmarshal([]byte(r.Items), &lines); err != nil {
			return nil, fmt.Errorf("failed to decode order lines: %w", err)
		}
	}
	if lines == nil {
		lines = []OrderLine{}
	}
	return &Order{
		ID:           r.ID,
		Items:        lines,
		TotalPrice:   r.TotalPrice,
		CreatedAt:    ParseTimestamp(r.CreatedAt),
		UpdatedAt:    ParseTimestamp(r.UpdatedAt),
		Status:       OrderStatus(r.Status),
		CustomerName: r.CustomerName,
		Paid:         r.Paid == 1,
		Note:         r.Note,
		User:         r.User,
	}, nil
}
