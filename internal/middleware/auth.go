package middleware

import (
	"context"
	"net/http"
	"strings"

	"argotelabs/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	ClaimsKey = "claims"

	tipoAcceso = "access"
)

// JWTClaims are the custom claims embedded in every token. RegisteredClaims.ID
// carries the jti used for sign-out.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
	Rol    string `json:"rol"`
	Tipo   string `json:"tipo"`
	jwt.RegisteredClaims
}

// Revocados answers whether a token id was signed out. *infra.Sesiones satisfies it.
type Revocados interface {
	Revocado(ctx context.Context, jti string) (bool, error)
}

// JWTAuth validates the Bearer access token on every protected route. The
// token may also come as ?token= for EventSource clients, which cannot set headers.
func JWTAuth(secret string, revocados Revocados) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extraerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Tipo != tipoAcceso {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token invalido o expirado"))
			return
		}

		if revocados != nil && claims.ID != "" {
			revocado, err := revocados.Revocado(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis down: let the request through rather than locking everyone out.
				log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("no se pudo consultar la lista de sesiones cerradas")
			} else if revocado {
				c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Sesion cerrada"))
				return
			}
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func extraerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[claims.Rol] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}

// UsuarioID returns the authenticated user id, or uuid.Nil.
func UsuarioID(c *gin.Context) uuid.UUID {
	claims := GetClaims(c)
	if claims == nil {
		return uuid.Nil
	}
	id, _ := uuid.Parse(claims.UserID)
	return id
}
