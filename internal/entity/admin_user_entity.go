package entity

import (
	"time"

	"github.com/google/uuid"
)

type AdminUser struct {
	Id           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
