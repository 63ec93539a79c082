package common

import (
	"roomly-backend/internal/config"
	"roomly-backend/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type JwtCustomClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type JWTIssuer interface {
	GenerateToken(email string) (string, error)
	Middleware() echo.MiddlewareFunc
	GetUserEmail(c echo.Context) (string, error)
}

// Identity is the validated caller record the auth layer yields for a
// bearer credential. UID identifies the caller for ownership comparisons,
// IDToken is the opaque session credential forwarded unmodified to the
// document store on every call.
type Identity struct {
	UID     string
	IDToken string
}

type ServerState struct {
	Echo      *echo.Echo
	Config    *config.Config
	DB        *gorm.DB
	JwtIssuer JWTIssuer
	Redis     *redis.Client
	Rooms     store.DocumentStore
}
