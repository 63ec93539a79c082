package handlers

import (
	"errors"
	"time"

	"roomly-backend/internal/common"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const tokenValidity = 30 * 24 * time.Hour

type JwtAuth struct {
	secret string
}

func NewJwtAuth(secret string) *JwtAuth {
	return &JwtAuth{secret: secret}
}

func (j *JwtAuth) GenerateToken(email string) (string, error) {
	claims := &common.JwtCustomClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenValidity)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secret))
}

// Middleware rejects requests without a valid bearer token before the
// handler runs.
func (j *JwtAuth) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(common.JwtCustomClaims)
		},
		SigningKey: []byte(j.secret),
	})
}

func (j *JwtAuth) GetUserEmail(c echo.Context) (string, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return "", errors.New("missing JWT in request context")
	}

	claims, ok := token.Claims.(*common.JwtCustomClaims)
	if !ok {
		return "", errors.New("unexpected JWT claims type")
	}

	return claims.Email, nil
}
