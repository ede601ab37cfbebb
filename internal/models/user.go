package models

import (
	"time"

	"github.com/google/uuid"
)

// Registered account. Username is unique and case-sensitive
// HashedPassword is bcrypt digest and never leaves the service
type User struct {
	ID             uuid.UUID
	Username       string
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
