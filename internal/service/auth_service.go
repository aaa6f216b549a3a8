package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-drive-api/internal/models"
	appErrors "github.com/noah-isme/campus-drive-api/pkg/errors"
)

type userStore interface {
	Upsert(ctx context.Context, user *models.User) error
}

// AuthService verifies access tokens issued by the external auth service
// and keeps the local user cache in sync with verified claims.
type AuthService struct {
	secret []byte
	users  userStore
	logger *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(secret string, users userStore, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{secret: []byte(secret), users: users, logger: logger}
}

// ValidateToken parses and verifies a bearer token, then syncs the user
// cache. A sync failure is logged but never blocks the request.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.UserID == 0 || claims.Role == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing identity claims")
	}

	if s.users != nil {
		user := &models.User{
			UserID:   claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
			Role:     claims.Role,
		}
		if err := s.users.Upsert(ctx, user); err != nil {
			s.logger.Warn("failed to sync user cache",
				zap.Int64("user_id", claims.UserID), zap.Error(err))
		}
	}
	return claims, nil
}
