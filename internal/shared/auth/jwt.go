package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the identity contained in a bearer token.
type Claims struct {
	Sub     string
	Email   string
	Name    string
	Picture string
	Exp     int64
	Iat     int64
}

var (
	errMissingSecret = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

// SignJWT signs the given claims with HS256 using the configured secret.
func SignJWT(claims Claims) (string, error) {
	secret, err := secretKey()
	if err != nil {
		return "", err
	}
	if claims.Sub == "" {
		return "", errors.New("sub is required")
	}

	now := time.Now().UTC().Unix()
	if claims.Iat == 0 {
		claims.Iat = now
	}
	if claims.Exp == 0 {
		claims.Exp = now + int64(24*time.Hour/time.Second)
	}

	mapped := jwt.MapClaims{
		"sub": claims.Sub,
		"iat": claims.Iat,
		"exp": claims.Exp,
	}
	if claims.Email != "" {
		mapped["email"] = claims.Email
	}
	if claims.Name != "" {
		mapped["name"] = claims.Name
	}
	if claims.Picture != "" {
		mapped["picture"] = claims.Picture
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapped)
	return token.SignedString(secret)
}

// DecodeClaims verifies a bearer token and extracts its claims. Tokens are
// minted by the login callback with the same secret, so a signature mismatch
// means a forgery or a rotated JWT_SECRET. Expired tokens are rejected by
// the parser.
func DecodeClaims(token string) (Claims, error) {
	secret, err := secretKey()
	if err != nil {
		return Claims{}, err
	}
	parsed, err := jwt.Parse(strings.TrimSpace(token), func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapped, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	if sub, ok := mapped["sub"].(string); ok {
		claims.Sub = sub
	}
	if claims.Sub == "" {
		return Claims{}, ErrInvalidToken
	}
	if email, ok := mapped["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := mapped["name"].(string); ok {
		claims.Name = name
	}
	if picture, ok := mapped["picture"].(string); ok {
		claims.Picture = picture
	}
	if exp, ok := mapped["exp"].(float64); ok {
		claims.Exp = int64(exp)
	}
	if iat, ok := mapped["iat"].(float64); ok {
		claims.Iat = int64(iat)
	}

	return claims, nil
}

func secretKey() ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	env := strings.ToLower(strings.TrimSpace(os.Getenv("ENV")))
	if env == "production" || env == "prod" {
		if secret == "" {
			return nil, fmt.Errorf("%w: JWT_SECRET required in production", errMissingSecret)
		}
	}
	if secret == "" {
		secret = "dev-secret"
	}
	return []byte(secret), nil
}
