package service

import (
	"context"
	"errors"

	"codedojo/internal/common"
	"codedojo/internal/common/security"
	"codedojo/internal/domain/model"
	"codedojo/internal/domain/repository"

	"go.uber.org/zap"
)

// CredentialGate turns a bearer token into a user. It keeps no session state.
type CredentialGate struct {
	codec    *security.TokenCodec
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewCredentialGate(codec *security.TokenCodec, userRepo repository.UserRepository, logger *zap.Logger) *CredentialGate {
	return &CredentialGate{codec: codec, userRepo: userRepo, logger: logger.Named("gate")}
}

// Resolve returns nil for a missing, invalid or orphaned token. It never
// fails; callers decide whether anonymous access is allowed.
func (g *CredentialGate) Resolve(ctx context.Context, token string) *model.User {
	if token == "" {
		return nil
	}
	claims, err := g.codec.Verify(token)
	if err != nil {
		return nil
	}
	userID, err := security.GetUserIDFromClaims(claims)
	if err != nil {
		return nil
	}
	user, err := g.userRepo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			g.logger.Warn("user lookup failed during authentication", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	return user
}

func (g *CredentialGate) Require(ctx context.Context, token string) (*model.User, error) {
	user := g.Resolve(ctx, token)
	if user == nil {
		return nil, common.ErrUnauthorized
	}
	return user, nil
}
