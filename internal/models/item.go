package models

import (
	"time"
)

// TimestampLayout is how timestamps are persisted locally. Millisecond
// precision with a fixed width keeps the stored strings lexically sortable.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Item struct {
	ID          uint      `json:"id,omitempty"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Stock       int       `json:"stock"`
	Removed     bool      `json:"removed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ItemRow is the persisted form of an Item: booleans as 0/1, timestamps as
// sortable strings.
type ItemRow struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"not null"`
	Price       float64 `gorm:"not null"`
	Category    string
	Description string `gorm:"type:text"`
	ImageURL    string `gorm:"column:image_url"`
	Stock       int
	Removed     int
	CreatedAt   string
	UpdatedAt   string
}

func (ItemRow) TableName() string { return "items" }

func NewItemRow(item *Item) *ItemRow {
	return &ItemRow{
		ID:          item.ID,
		Name:        item.Name,
		Price:       item.Price,
		Category:    item.Category,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		Stock:       item.Stock,
		Removed:     boolToInt(item.Removed),
		CreatedAt:   FormatTimestamp(item.CreatedAt),
		UpdatedAt:   FormatTimestamp(item.UpdatedAt),
	}
}

func (r *ItemRow) Item() *Item {
	return &Item{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Category:    r.Category,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Stock:       r.Stock,
		Removed:     r.Removed == 1,
		CreatedAt:   ParseTimestamp(r.CreatedAt),
		UpdatedAt:   ParseTimestamp(r.UpdatedAt),
	}
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		// Fall back for records written by other clients.
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
