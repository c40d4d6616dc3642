package domain

import (
	"time"
)

type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u UserProfile) Identity() string {
	return u.ID
}

func (u UserProfile) Owner() string {
	return u.ID
}

func (u UserProfile) Label() string {
	return u.Name
}

type NewUserProfile struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required,notblank,max=128"`
	Email string `json:"email" validate:"required,email"`
	Role  Role   `json:"role" validate:"required,role"`
}

// Credentials are the email/password pair used to open a session.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type NewAccount struct {
	Name     string `json:"name" validate:"required,notblank,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

// Account is the authenticated principal as reported by the backend.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
