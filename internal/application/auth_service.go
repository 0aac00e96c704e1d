package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	userDomain "github.com/port-russell/service-marina/internal/domain/user"
	"github.com/port-russell/service-marina/internal/platform/auth"
	"github.com/port-russell/service-marina/internal/platform/domain"
)

// LoginRequest holds staff credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserDTO is the public representation of a user.
type UserDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        UserDTO   `json:"user"`
}

// AuthService authenticates harbour office staff.
type AuthService struct {
	users      userDomain.UserRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(users userDomain.UserRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, jwtManager: jwtManager, logger: logger}
}

// Login checks the credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	invalid := domain.NewUnauthorizedError("invalid email or password")

	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash(), req.Password) {
		s.logger.Warn("failed login", zap.String("email", u.Email()))
		return nil, invalid
	}

	token, exp, err := s.jwtManager.GenerateAccessToken(u.ID(), u.Email(), u.Role())
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", u.ID().String()))
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		User: UserDTO{
			ID:    u.ID(),
			Name:  u.Name(),
			Email: u.Email(),
			Role:  u.Role(),
		},
	}, nil
}

// EnsureAdmin creates the admin account when no user with email exists yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		s.logger.Warn("admin credentials not configured, skipping seed")
		return nil
	}

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !domain.IsNotFound(err) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	u, err := userDomain.NewUser(name, email, hash, auth.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return err
	}

	s.logger.Info("admin user seeded", zap.String("email", u.Email()))
	return nil
}
