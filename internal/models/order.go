package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus int

const (
	OrderCanceled OrderStatus = 0
	OrderUnpaid   OrderStatus = 10
	OrderPaid     OrderStatus = 20
	OrderShipped  OrderStatus = 40
	OrderSuccess  OrderStatus = 50
	OrderClosed   OrderStatus = 60
)

func (s OrderStatus) String() string {
	switch s {
	case OrderCanceled:
		return "canceled"
	case OrderUnpaid:
		return "unpaid"
	case OrderPaid:
		return "paid"
	case OrderShipped:
		return "shipped"
	case OrderSuccess:
		return "completed"
	case OrderClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PaymentType is how an order is paid.
type PaymentType int

const PaymentOnline PaymentType = 1

func (p PaymentType) String() string {
	if p == PaymentOnline {
		return "online payment"
	}
	return "unknown"
}

// Order is the orders table; OrderNo is the public identifier.
type Order struct {
	Base
	OrderNo     int64           `gorm:"uniqueIndex;not null"`
	UserID      uint            `gorm:"index;not null"`
	ShippingID  uint            `gorm:"not null"`
	Payment     decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	PaymentType PaymentType     `gorm:"not null;default:1"`
	Postage     int             `gorm:"not null;default:0"`
	Status      OrderStatus     `gorm:"not null"`
	PaymentTime *time.Time
	SendTime    *time.Time
	EndTime     *time.Time
	CloseTime   *time.Time
}

// OrderItem snapshots a product at the moment the order was placed.
type OrderItem struct {
	Base
	UserID           uint   `gorm:"index;not null"`
	OrderNo          int64  `gorm:"index;not null"`
	ProductID        uint   `gorm:"not null"`
	ProductName      string `gorm:"not null"`
	ProductImage     string
	CurrentUnitPrice decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Quantity         int             `gorm:"not null"`
	TotalPrice       decimal.Decimal `gorm:"type:decimal(20,2);not null"`
}

// PayPlatform identifies the payment gateway of a PayInfo.
type PayPlatform int

const PayPlatformAlipay PayPlatform = 1

// PayInfo records every payment notification accepted for an order.
type PayInfo struct {
	Base
	UserID         uint        `gorm:"index;not null"`
	OrderNo        int64       `gorm:"index;not null"`
	PayPlatform    PayPlatform `gorm:"not null"`
	PlatformNumber string
	PlatformStatus string
}

// All lists the tables for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Category{}, &Product{}, &CartItem{},
		&Shipping{}, &Order{}, &OrderItem{}, &PayInfo{},
	}
}
