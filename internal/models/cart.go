package models

// CartItem is one product line of a user's cart.
type CartItem struct {
	Base
	UserID    uint `gorm:"uniqueIndex:idx_cart_user_product;not null"`
	ProductID uint `gorm:"uniqueIndex:idx_cart_user_product;not null"`
	Quantity  int  `gorm:"not null"`
	Checked   bool `gorm:"not null"`
}
