package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func newTestService(t *testing.T, now func() time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60}, now)
	require.NoError(t, err)
	return svc
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	playerID := uuid.New()
	svc := newTestService(t, fixedClock(fixedTime))

	token, err := svc.GenerateToken(context.Background(), playerID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, playerID, claims.PlayerID)
	assert.Equal(t, playerID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenFailures(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	playerID := uuid.New()
	issuing := newTestService(t, fixedClock(fixedTime))
	token, err := issuing.GenerateToken(context.Background(), playerID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     *hmacJWTService
		token   string
		wantErr error
	}{
		{
			name:    "expired beyond leeway",
			svc:     newTestService(t, fixedClock(fixedTime.Add(time.Hour+3*time.Minute))),
			token:   token,
			wantErr: ErrExpiredToken,
		},
		{
			name:    "within clock skew",
			svc:     newTestService(t, fixedClock(fixedTime.Add(time.Hour+time.Minute))),
			token:   token,
			wantErr: nil,
		},
		{
			name:    "malformed",
			svc:     issuing,
			token:   "not.a.token",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing",
			svc:     issuing,
			token:   "",
			wantErr: ErrMissingToken,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := tc.svc.ValidateToken(context.Background(), tc.token)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Now()
	svc := newTestService(t, fixedClock(now))
	other, err := newJWTService(config.AuthConfig{
		JWTSecret:            "another-secret-that-is-long-enough-too",
		TokenLifetimeMinutes: 60,
	}, fixedClock(now))
	require.NoError(t, err)

	token, err := other.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsWrongTypeAndAlgorithm(t *testing.T) {
	t.Parallel()

	now := time.Now()
	svc := newTestService(t, fixedClock(now))
	playerID := uuid.New()

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		PlayerID:  playerID,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   playerID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err := refresh.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwtCustomClaims{
		PlayerID:  playerID,
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   playerID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, err = hs512.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTServiceValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 0})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 5})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
