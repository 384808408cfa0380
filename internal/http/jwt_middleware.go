package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pathfinder-llm/internal/service"
)

const authUserIDKey = "auth_user_id"

// RequireUser exige un access token valido y deja el id del usuario en el contexto.
// Las conversaciones solo necesitan el sujeto; el resto de los claims no se propaga.
func RequireUser(jwtSvc *service.JWTService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if jwtSvc == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			logger.Debug("access token rejected", zap.Error(err), zap.String("path", c.FullPath()))
			msg := "invalid token"
			if errors.Is(err, service.ErrJWTExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(authUserIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AuthUserID devuelve el usuario autenticado por RequireUser.
func AuthUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(authUserIDKey)
	return userID, userID != ""
}
