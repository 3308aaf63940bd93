// Package auth verifies caller tokens and resolves them to an explicit
// Identity that handlers pass down into the workflow services. Token
// issuance is an external concern; this package only verifies.
package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Role is the caller's position in the clinic.
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
	RoleLabTech Role = "LABTECH"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleDoctor, RolePatient, RoleLabTech:
		return true
	}
	return false
}

// Identity is the resolved caller. It is threaded explicitly through every
// service operation that needs to authorize; nothing reads it from ambient
// global state.
type Identity struct {
	ID    int64
	Email string
	Role  Role
}

// Claims is the verified JWT payload. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

type contextKey string

const identityKey contextKey = "caller_identity"

// ContextWithIdentity returns ctx carrying the given caller identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the caller resolved by JWTMiddleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// AccountDirectory confirms that a token subject still resolves to a live
// account. The identity service satisfies it.
type AccountDirectory interface {
	ResolveAccount(ctx context.Context, email string) (Identity, bool, error)
}

// JWTMiddleware verifies the bearer token with the shared HMAC secret,
// cross-checks the subject against the account directory so tokens for
// deleted or re-registered accounts stop working, and places the caller
// Identity on the request context.
func JWTMiddleware(secret []byte, directory AccountDirectory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}
			role := Role(claims.Role)
			if !role.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown role")
			}

			ident := Identity{ID: userID, Email: claims.Email, Role: role}

			account, ok, err := directory.ResolveAccount(c.Request().Context(), ident.Email)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
			}
			if !ok || account.ID != ident.ID || account.Role != ident.Role {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown account")
			}

			ctx := ContextWithIdentity(c.Request().Context(), ident)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
