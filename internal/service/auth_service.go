package service

import (
	"context"
	"errors"
	"time"

	"voc-chatbot-be/internal/dto"
	"voc-chatbot-be/internal/entity"
	"voc-chatbot-be/internal/pkg/logger"
	"voc-chatbot-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Me(ctx context.Context, email string) (*dto.MeResponse, error)
	// EnsureSeedAdmin creates the bootstrap admin account when none exists.
	EnsureSeedAdmin(ctx context.Context, email, password string) error
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	jwtSecret  []byte
	tokenTTL   time.Duration
	logger     logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	jwtSecret string,
	tokenTTL time.Duration,
	appLogger logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		logger:     appLogger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	admin, err := uow.AdminUserRepository().FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("AuthService", "Failed login attempt", map[string]interface{}{"email": req.Email})
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin_id": admin.Id.String(),
		"email":    admin.Email,
		"exp":      expiresAt.Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
		Email:     admin.Email,
		Name:      admin.Name,
	}, nil
}

func (s *authService) Me(ctx context.Context, email string) (*dto.MeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	admin, err := uow.AdminUserRepository().FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}
	return &dto.MeResponse{Email: admin.Email, Name: admin.Name}, nil
}

func (s *authService) EnsureSeedAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.AdminUserRepository()

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &entity.AdminUser{
		Email:        email,
		Name:         "Administrator",
		PasswordHash: string(hash),
	}
	if err := repo.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("AuthService", "Seed admin created", map[string]interface{}{"email": email})
	return nil
}
