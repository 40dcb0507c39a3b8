package contract

import (
	"context"

	"voc-chatbot-be/internal/entity"

	"github.com/google/uuid"
)

type AdminUserRepository interface {
	Create(ctx context.Context, user *entity.AdminUser) error
	Update(ctx context.Context, user *entity.AdminUser) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.AdminUser, error)
	FindByEmail(ctx context.Context, email string) (*entity.AdminUser, error)
}
