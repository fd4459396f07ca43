package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrBadSubject   = errors.New("token subject is not a valid user id")
	ErrBadRole      = errors.New("token role is not recognized")
)

// Claims mirrors what the identity provider puts in its access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role          string `json:"role"`
	EmailVerified bool   `json:"email_verified"`
}

// Verifier validates HS256 bearer tokens issued by the identity provider
// and turns them into a Principal.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

func (v *Verifier) Verify(tokenString string) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Principal{}, ErrBadSubject
	}

	role := Role(claims.Role)
	switch role {
	case RolePatient, RoleDoctor, RoleAdmin:
	default:
		return Principal{}, ErrBadRole
	}

	return Principal{
		UserID:        userID,
		Role:          role,
		EmailVerified: claims.EmailVerified,
	}, nil
}
