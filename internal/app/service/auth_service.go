package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codedojo/internal/common"
	"codedojo/internal/common/security"
	"codedojo/internal/domain/model"
	"codedojo/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	userRepo repository.UserRepository
	codec    *security.TokenCodec
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, codec *security.TokenCodec, logger *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, codec: codec, logger: logger.Named("auth")}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		HashedPassword: hashedPassword,
		Role:           model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict for a taken username
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login checks the credentials and issues a bearer token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := s.codec.IssueForUser(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *AuthService) GrantAdmin(ctx context.Context, username string) error {
	if err := s.userRepo.SetRole(ctx, username, model.RoleAdmin); err != nil {
		return fmt.Errorf("grant admin to %q: %w", username, err)
	}
	s.logger.Info("admin role granted", zap.String("username", username))
	return nil
}
