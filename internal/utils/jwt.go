package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// APIScope est le seul scope délivré et accepté par l'API panier.
const APIScope = "api"

var ErrInvalidToken = errors.New("token invalide")

// AppClaims identifie l'application appelante.
type AppClaims struct {
	App   string `json:"app"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// GenerateAppToken signe un jeton HS256 pour une application.
func GenerateAppToken(app string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	if app == "" {
		return "", time.Time{}, errors.New("nom d'application manquant")
	}
	if len(secret) == 0 {
		return "", time.Time{}, errors.New("secret JWT manquant")
	}

	now := time.Now()
	exp := now.Add(ttl)
	claims := AppClaims{
		App:   app,
		Scope: APIScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   app,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseAppToken vérifie la signature, l'expiration et le scope.
func ParseAppToken(tokenString string, secret []byte) (*AppClaims, error) {
	claims := &AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Scope != APIScope {
		return nil, fmt.Errorf("%w: scope %q", ErrInvalidToken, claims.Scope)
	}
	if claims.App == "" {
		return nil, fmt.Errorf("%w: app manquant", ErrInvalidToken)
	}
	return claims, nil
}
