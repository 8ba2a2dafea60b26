package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, cfg *TokenServiceConfig) TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	if cfg == nil {
		cfg = &TokenServiceConfig{}
	}
	cfg.PrivateKey = key
	cfg.PublicKey = &key.PublicKey
	if cfg.Issuer == "" {
		cfg.Issuer = "zhice-cms-test"
	}
	return NewTokenService(cfg)
}

func TestTokenService_AccessTokenRoundtrip(t *testing.T) {
	svc := newTestTokenService(t, nil)
	ctx := context.Background()

	token, err := svc.GenerateAccessToken(ctx, &TokenClaims{
		UserID:    "user-123",
		Username:  "zhangsan",
		Email:     "zhangsan@example.com",
		SessionID: "session-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "zhangsan", claims.Username)
	assert.Equal(t, "session-1", claims.SessionID)
	assert.Equal(t, "access", claims.Type)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestTokenService_RefreshTokenType(t *testing.T) {
	svc := newTestTokenService(t, nil)
	ctx := context.Background()

	token, err := svc.GenerateRefreshToken(ctx, &TokenClaims{UserID: "user-123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.Type)
}

func TestTokenService_ExpiredToken(t *testing.T) {
	svc := newTestTokenService(t, &TokenServiceConfig{
		AccessExpiry: -time.Minute, // 签发即过期
	})
	ctx := context.Background()

	token, err := svc.GenerateAccessToken(ctx, &TokenClaims{UserID: "user-123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, token)
	assert.Equal(t, ErrTokenExpired, err)
}

func TestTokenService_RevokedToken(t *testing.T) {
	svc := newTestTokenService(t, nil)
	ctx := context.Background()

	token, err := svc.GenerateAccessToken(ctx, &TokenClaims{UserID: "user-123"})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(ctx, token))

	_, err = svc.ValidateToken(ctx, token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestTokenService_WrongIssuer(t *testing.T) {
	ctx := context.Background()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	issuerA := NewTokenService(&TokenServiceConfig{
		PrivateKey: key, PublicKey: &key.PublicKey, Issuer: "issuer-a",
	})
	issuerB := NewTokenService(&TokenServiceConfig{
		PrivateKey: key, PublicKey: &key.PublicKey, Issuer: "issuer-b",
	})

	token, err := issuerA.GenerateAccessToken(ctx, &TokenClaims{UserID: "user-123"})
	require.NoError(t, err)

	// 相同密钥但签发者不同，验证失败
	_, err = issuerB.ValidateToken(ctx, token)
	assert.Equal(t, ErrInvalidIssuer, err)
}

func TestTokenService_WrongKey(t *testing.T) {
	ctx := context.Background()

	signer := newTestTokenService(t, nil)
	verifier := newTestTokenService(t, nil)

	token, err := signer.GenerateAccessToken(ctx, &TokenClaims{UserID: "user-123"})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(ctx, token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestTokenService_GarbageToken(t *testing.T) {
	svc := newTestTokenService(t, nil)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "not.a.token")
	assert.Equal(t, ErrInvalidToken, err)
}
