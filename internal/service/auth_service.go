package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/repo/postgres"
	"github.com/eazyparking/parking-bookings/pkg/auth"
	"github.com/eazyparking/parking-bookings/pkg/config"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterReq) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginReq, role domain.Role) (string, *domain.User, error)
	Profile(ctx context.Context, userID int64) (*domain.User, error)
}

type authService struct {
	userRepo postgres.UserRepo
	cfg      *config.Config
}

func NewAuthService(userRepo postgres.UserRepo, cfg *config.Config) AuthService {
	return &authService{userRepo: userRepo, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterReq) (*domain.User, error) {
	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginReq, role domain.Role) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email, role)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrUnauthorized
		}
		return "", nil, err
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return "", nil, domain.ErrUnauthorized
	}

	token, err := auth.NewAccessToken(user.ID, user.Email, string(user.Role),
		s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	return token, user, nil
}

func (s *authService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
