package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

const (
	identityContextKey = "caller_identity"
	bearerPrefix       = "Bearer "
)

// authMiddleware validates the bearer token and stores the caller
// identity from the token subject in the request context. Requests
// without a valid token never reach the handlers.
func authMiddleware(signingKey []byte, issuer string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing bearer token"))
			return
		}
		tokenText := strings.TrimPrefix(header, bearerPrefix)

		claims := jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenText, &claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return signingKey, nil
		}, jwt.WithIssuer(issuer), jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid token"))
			return
		}

		identity, err := market.NewIdentity(claims.Subject)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "token subject is empty"))
			return
		}
		ctx.Set(identityContextKey, identity)
		ctx.Next()
	}
}

func callerIdentity(ctx *gin.Context) (market.Identity, bool) {
	value, ok := ctx.Get(identityContextKey)
	if !ok {
		return market.Identity{}, false
	}
	identity, ok := value.(market.Identity)
	return identity, ok
}
