package models

import "time"

// User is an account that can organize tournaments or register for them.
type User struct {
	ID           int       `json:"id" db:"id"`
	Name         *string   `json:"name,omitempty" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	ImageKey     *string   `json:"-" db:"image_key"`
	ImageURL     *string   `json:"image_url,omitempty" db:"-"`
}
