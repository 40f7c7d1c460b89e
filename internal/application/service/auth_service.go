package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/utils"
)

// AuthService handles authentication-related operations
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo repository.UserRepository, jwtManager *utils.JWTManager) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Username string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	User        *entity.User
	AccessToken string
	ExpiresIn   int64
}

// Login authenticates a user and returns an access token
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.RoleNames())
	if err != nil {
		return nil, apperror.Internal("generate access token", err)
	}

	return &LoginOutput{
		User:        user,
		AccessToken: accessToken,
		ExpiresIn:   int64(s.jwtManager.Expiry().Seconds()),
	}, nil
}

// Me returns the authenticated user with roles
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// RegisterUserInput represents a new staff account
type RegisterUserInput struct {
	Username string
	FullName string
	Password string
	Roles    []string
}

// RegisterUser creates a staff account with the given roles.
func (s *AuthService) RegisterUser(ctx context.Context, input *RegisterUserInput) (*entity.User, error) {
	var errs []apperror.FieldError
	username := strings.TrimSpace(input.Username)
	if username == "" {
		errs = append(errs, apperror.FieldError{Field: "username", Message: "Username is required"})
	}
	if len(input.Password) < 8 {
		errs = append(errs, apperror.FieldError{Field: "password", Message: "Password must be at least 8 characters"})
	}
	for _, name := range input.Roles {
		if !knownRole(name) {
			errs = append(errs, apperror.FieldError{Field: "roles", Message: "Unknown role " + name})
		}
	}
	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs...)
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Username already taken")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.Internal("hash password", err)
	}

	user := &entity.User{
		Username: username,
		FullName: input.FullName,
		Password: hashed,
	}
	for _, name := range input.Roles {
		role, err := s.userRepo.FirstOrCreateRole(ctx, name)
		if err != nil {
			return nil, err
		}
		user.Roles = append(user.Roles, *role)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func knownRole(name string) bool {
	switch name {
	case entity.RoleAdministrator, entity.RoleAdmin, entity.RoleManager, entity.RoleCashier:
		return true
	}
	return false
}
