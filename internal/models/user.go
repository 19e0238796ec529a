package models

import "golang.org/x/crypto/bcrypt"

// Role decides access to the admin endpoints.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is the users table. Password and Answer never leave the server.
type User struct {
	Base
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Password string `gorm:"not null" json:"-"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Phone    string `json:"phone"`
	Question string `json:"question"`
	Answer   string `json:"-"`
	Role     Role   `gorm:"type:varchar(16);not null;default:'customer'" json:"role"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// HashPassword turns a plain password into a bcrypt hash.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
