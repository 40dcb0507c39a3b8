package mapper

import (
	"time"

	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/model"

	"gorm.io/gorm"
)

type AdminUserMapper struct{}

func NewAdminUserMapper() *AdminUserMapper {
	return &AdminUserMapper{}
}

func (m *AdminUserMapper) ToEntity(mdl *model.AdminUser) *entity.AdminUser {
	if mdl == nil {
		return nil
	}

	var updatedAt *time.Time
	if !mdl.UpdatedAt.IsZero() {
		t := mdl.UpdatedAt
		updatedAt = &t
	}

	var deletedAt *time.Time
	if mdl.DeletedAt.Valid {
		deletedAt = &mdl.DeletedAt.Time
	}

	return &entity.AdminUser{
		Id:           mdl.Id,
		Email:        mdl.Email,
		Name:         mdl.Name,
		PasswordHash: mdl.PasswordHash,
		CreatedAt:    mdl.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
		IsDeleted:    mdl.DeletedAt.Valid,
	}
}

func (m *AdminUserMapper) ToModel(ent *entity.AdminUser) *model.AdminUser {
	if ent == nil {
		return nil
	}

	var updatedAt time.Time
	if ent.UpdatedAt != nil {
		updatedAt = *ent.UpdatedAt
	}

	var deletedAt gorm.DeletedAt
	if ent.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *ent.DeletedAt, Valid: true}
	}

	return &model.AdminUser{
		Id:           ent.Id,
		Email:        ent.Email,
		Name:         ent.Name,
		PasswordHash: ent.PasswordHash,
		CreatedAt:    ent.CreatedAt,
		UpdatedAt:    updatedAt,
		DeletedAt:    deletedAt,
	}
}
