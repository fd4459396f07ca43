package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerify(t *testing.T) {
	v := NewVerifier([]byte(testSecret))
	userID := uuid.New()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":            userID.String(),
		"role":           "doctor",
		"email_verified": true,
		"exp":            time.Now().Add(time.Hour).Unix(),
	})

	p, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, p.UserID)
	assert.Equal(t, RoleDoctor, p.Role)
	assert.True(t, p.EmailVerified)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewVerifier([]byte(testSecret))
	userID := uuid.New()

	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":            userID.String(),
			"role":           "patient",
			"email_verified": true,
			"exp":            time.Now().Add(time.Hour).Unix(),
		}
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(signToken(t, "other-secret", base()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		claims := base()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		_, err := v.Verify(signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, base()).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = v.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("non uuid subject", func(t *testing.T) {
		claims := base()
		claims["sub"] = "user-42"
		_, err := v.Verify(signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrBadSubject)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := base()
		claims["role"] = "janitor"
		_, err := v.Verify(signToken(t, testSecret, claims))
		assert.ErrorIs(t, err, ErrBadRole)
	})
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	p := Principal{UserID: uuid.New(), Role: RoleAdmin, EmailVerified: true}

	ctx := WithPrincipal(context.Background(), p)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
