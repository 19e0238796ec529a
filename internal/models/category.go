package models

// Category is the categories table. ParentID 0 marks a root.
type Category struct {
	Base
	ParentID  uint   `gorm:"index;not null;default:0" json:"parentId"`
	Name      string `gorm:"not null" json:"name"`
	Status    bool   `gorm:"not null" json:"status"`
	SortOrder int    `gorm:"not null;default:0" json:"sortOrder"`
}
