// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID           string    `db:"id"`
	UserName     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	IsAdmin      bool      `db:"is_admin"`
	CreatedAt    time.Time `db:"created_at"`
}
