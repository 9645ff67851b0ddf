package userRepo

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no user matches the given id.
var ErrNotFound = errors.New("user not found")

// User is the slice of the customer record the engine needs: enough to
// address a notification.
type User struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt,omitzero"`
}

// UserRepository reads customer contact records.
type UserRepository interface {
	GetByID(id string) (*User, error)
}
