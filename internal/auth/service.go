// Package auth はパスワード認証とJWTトークンの発行・検証を提供する。
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/microblog/internal/model"
	"github.com/hitoshi/microblog/internal/repository"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	// JWTSecret はHS256署名の共有鍵。
	JWTSecret string
	// TokenTTL はアクセストークンの有効期間。
	TokenTTL time.Duration
}

// Service は認証のサービス層。
// ログイン（トークン発行）とトークン検証を提供する。
// コアのドメインサービスは検証済みのユーザーIDを信頼し、資格情報を再検証しない。
type Service struct {
	userRepo repository.UserRepository
	config   ServiceConfig
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, config ServiceConfig) *Service {
	return &Service{
		userRepo: userRepo,
		config:   config,
		now:      time.Now,
	}
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// Login はメールアドレスとパスワードを検証し、アクセストークンを発行する。
// ユーザー不明とパスワード不一致は同一のエラーとして返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	expiresAt := s.now().Add(s.config.TokenTTL)
	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": expiresAt.Unix(),
		"iat": s.now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("トークンの署名に失敗しました: %w", err)
	}

	return &LoginResult{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// VerifyToken はアクセストークンを検証し、ユーザーIDを返す。
// 署名不正・期限切れ・アルゴリズム不一致はすべてエラー。
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("sub not found in token")
	}

	return userID, nil
}
