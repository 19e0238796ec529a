package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// TimeLayout is how timestamps are rendered in API views.
const TimeLayout = "2006-01-02 15:04:05"

// Base holds the columns shared by every table.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createTime"`
	UpdatedAt time.Time `json:"updateTime"`
}

// FormatTime renders t with TimeLayout, or "" for nil/zero.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(TimeLayout)
}
