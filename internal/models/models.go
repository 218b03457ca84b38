package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. Transitions are one-directional
// (pending -> confirmed -> shipped -> delivered) except cancellation,
// which is only allowed from pending or confirmed.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description string    `json:"description"`
	Products    []Product `gorm:"foreignKey:CategoryID"    json:"-"`
}

type Product struct {
	ID               uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name             string          `gorm:"not null"                    json:"name"`
	Description      string          `gorm:"not null"                    json:"description"`
	Price            decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL         string          `gorm:"not null"                    json:"image_url"`
	AdditionalImages string          `json:"-"`
	CategoryID       uint            `gorm:"index;not null"              json:"category_id"`
	StockQuantity    int             `gorm:"default:1"                   json:"stock_quantity"`
	Featured         bool            `gorm:"default:false"               json:"featured"`
	CreatedAt        time.Time       `json:"created_at"`
}

// AdditionalImageURLs decodes the stored JSON list of extra image URLs.
// Malformed or empty data yields an empty list.
func (p *Product) AdditionalImageURLs() []string {
	if p.AdditionalImages == "" {
		return nil
	}
	var urls []string
	if err := json.Unmarshal([]byte(p.AdditionalImages), &urls); err != nil {
		return nil
	}
	return urls
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
}

// FullName falls back to the username when no name was given.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Wishlist struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"                       json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Order struct {
	ID              uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID          uint            `gorm:"index;not null"              json:"user_id"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status          string          `gorm:"not null;default:pending"    json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"          json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Cancellable reports whether the order may still transition to cancelled.
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"order_id"`
	ProductID uint            `gorm:"not null"                    json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity>0"   json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&Category{},
		&Product{},
		&User{},
		&RefreshToken{},
		&Wishlist{},
		&Order{},
		&OrderItem{},
	}
}
