package implementation

import (
	"context"
	"errors"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/mapper"
	"voc-chatbot-be/internal/model"
	"voc-chatbot-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminUserRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AdminUserMapper
}

func NewAdminUserRepository(db *gorm.DB) contract.AdminUserRepository {
	return &AdminUserRepositoryImpl{
		db:     db,
		mapper: mapper.NewAdminUserMapper(),
	}
}

func (r *AdminUserRepositoryImpl) Create(ctx context.Context, user *entity.AdminUser) error {
	m := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(m)
	return nil
}

func (r *AdminUserRepositoryImpl) Update(ctx context.Context, user *entity.AdminUser) error {
	m := r.mapper.ToModel(user)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*user = *r.mapper.ToEntity(m)
	return nil
}

func (r *AdminUserRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.AdminUser{}, id).Error
}

func (r *AdminUserRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.AdminUser, error) {
	var m model.AdminUser
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AdminUserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*entity.AdminUser, error) {
	var m model.AdminUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
