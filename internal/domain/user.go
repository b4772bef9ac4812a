package domain

import "time"

type User struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Password   string    `json:"-"` // bcrypt hash, never serialised
	FullName   string    `json:"full_name"`
	Address    string    `json:"address"`
	PostalCode int       `json:"postal_code"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Actor is the authenticated caller handed to every guarded operation.
type Actor struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func (a Actor) Role() string {
	if a.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// RegisterUserDTO carries the raw registration form.
type RegisterUserDTO struct {
	Username   string `json:"email" form:"email" binding:"required,min=3,max=50"`
	Password   string `json:"password" form:"password" binding:"required,min=4,max=100"`
	FullName   string `json:"fullName" form:"fullName" binding:"required,max=50"`
	Address    string `json:"address" form:"address" binding:"required,max=200"`
	PostalCode string `json:"pincode" form:"pincode" binding:"required,postalcode"`
}

// RegisterUserInput is RegisterUserDTO after coercion.
type RegisterUserInput struct {
	Username   string
	Password   string
	FullName   string
	Address    string
	PostalCode int
}

type LoginUserDTO struct {
	Username string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type AuthResponseDTO struct {
	Token    string `json:"token"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Redirect string `json:"redirect"`
}
