package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/templui/goalkeep/internal/model"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrMissingIdentity = errors.New("token carries no identity")
)

// AuthService issues and checks the bearer tokens that carry caller identity.
type AuthService struct {
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthService(jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

func (s *AuthService) GenerateJWT(identity model.Identity) (string, error) {
	if identity == "" {
		return "", ErrMissingIdentity
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"identity": string(identity),
		"exp":      now.Add(s.jwtExpiry).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyJWT checks the token signature and expiry and returns the caller identity.
func (s *AuthService) VerifyJWT(tokenString string) (model.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	identity, _ := claims["identity"].(string)
	if identity == "" {
		return "", ErrMissingIdentity
	}

	return model.Identity(identity), nil
}
