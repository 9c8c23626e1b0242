package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manda2/internal/cache"
	"github.com/manda2/internal/config"
	"github.com/manda2/internal/models"
	"github.com/manda2/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims 操作员 JWT 声明
type OperatorClaims struct {
	OperatorID   uint   `json:"operator_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// CustomerClaims 顾客 JWT 声明（由身份提供方签发）
type CustomerClaims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// AuthService 认证服务：操作员令牌签发与顾客令牌解析
type AuthService struct {
	cfg          *config.Config
	operatorRepo repository.OperatorRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, operatorRepo repository.OperatorRepository) *AuthService {
	return &AuthService{
		cfg:          cfg,
		operatorRepo: operatorRepo,
	}
}

// IssueOperatorToken 为操作员签发令牌
func (s *AuthService) IssueOperatorToken(username string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	operator, err := s.operatorRepo.GetByUsername(username)
	if err != nil {
		return "", time.Time{}, err
	}
	if operator == nil {
		return "", time.Time{}, ErrOperatorNotFound
	}
	return s.signOperatorToken(operator)
}

func (s *AuthService) signOperatorToken(operator *models.Operator) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolveExpireHours(s.cfg.OperatorJWT.ExpireHours)) * time.Hour)

	claims := OperatorClaims{
		OperatorID:   operator.ID,
		Username:     operator.Username,
		TokenVersion: operator.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.OperatorJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrTokenIssueFailed, err)
	}
	return tokenString, expiresAt, nil
}

// RevokeOperatorTokens 递增 Token 版本使已签发令牌全部失效
func (s *AuthService) RevokeOperatorTokens(ctx context.Context, username string) error {
	operator, err := s.operatorRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return err
	}
	if operator == nil {
		return ErrOperatorNotFound
	}
	now := time.Now()
	operator.TokenVersion++
	operator.TokenInvalidBefore = &now
	if err := s.operatorRepo.Update(operator); err != nil {
		return err
	}
	return cache.SetOperatorAuthState(ctx, cache.BuildOperatorAuthState(operator))
}

// GenerateCustomerJWT 签发顾客 JWT（本地联调使用）
func (s *AuthService) GenerateCustomerJWT(identity CustomerIdentity) (string, time.Time, error) {
	return GenerateCustomerToken(s.cfg.UserJWT.SecretKey, s.cfg.UserJWT.ExpireHours, identity)
}

// ParseOperatorToken 校验签名并解析操作员声明
func ParseOperatorToken(secret, tokenString string) (*OperatorClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &OperatorClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.OperatorID == 0 {
		return nil, errors.New("invalid operator token")
	}
	return claims, nil
}

// ParseCustomerToken 校验签名并解析顾客身份
func ParseCustomerToken(secret, tokenString string) (*CustomerIdentity, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrCustomerTokenInvalid
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &CustomerClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrCustomerTokenInvalid
	}
	return &CustomerIdentity{
		UserID:   strings.TrimSpace(claims.UserID),
		Email:    strings.TrimSpace(claims.Email),
		FullName: strings.TrimSpace(claims.FullName),
	}, nil
}

// GenerateCustomerToken 签发顾客令牌
func GenerateCustomerToken(secret string, expireHours int, identity CustomerIdentity) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolveExpireHours(expireHours)) * time.Hour)
	claims := CustomerClaims{
		UserID:   identity.UserID,
		Email:    identity.Email,
		FullName: identity.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrTokenIssueFailed, err)
	}
	return tokenString, expiresAt, nil
}

func resolveExpireHours(hours int) int {
	if hours <= 0 {
		return 24
	}
	return hours
}
