package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	Username     string
	DisplayName  string
	PasswordHash string
	IsActive     bool
}
