// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const (
	userIDKey ContextKey = "userID"
	roleKey   ContextKey = "role"
)

// TokenValidator validates JWT tokens. It allows the middleware to work with
// any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (ClaimsGetter, error)
}

// ClaimsGetter extracts identity from token claims.
type ClaimsGetter interface {
	GetUserID() int64
	GetRole() string
}

// RoleLookup reads the canonical role of a user. Used to re-check stale role
// claims before rejecting a request.
type RoleLookup interface {
	GetUserRole(ctx context.Context, userID int64) (string, error)
}

// Auth validates the request token and stores identity in the request context.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return RequireRoles(validator, nil)
}

// RequireRoles validates the token and enforces role membership. A token whose
// role claim misses is given one retry against the canonical role in storage,
// so a freshly promoted user does not have to log in again. An empty roles
// list means any authenticated user.
func RequireRoles(validator TokenValidator, roles RoleLookup, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID := claims.GetUserID()
			role := claims.GetRole()

			if len(allowed) > 0 && !contains(allowed, role) {
				if roles != nil {
					if canonical, err := roles.GetUserRole(r.Context(), userID); err == nil && canonical != "" {
						role = canonical
					}
				}
				if !contains(allowed, role) {
					msg := fmt.Sprintf("Forbidden: requires role %s, have %s",
						strings.Join(allowed, " or "), role)
					http.Error(w, msg, http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken looks for credentials in order: Authorization bearer header,
// auth cookie, token query parameter. The query parameter exists for the
// websocket handshake, where browsers cannot set headers.
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// GetUserID extracts the authenticated user ID from the request context.
func GetUserID(r *http.Request) (int64, error) {
	userID, ok := r.Context().Value(userIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in request context")
	}
	return userID, nil
}

// GetRole extracts the authenticated role from the request context.
func GetRole(r *http.Request) (string, error) {
	role, ok := r.Context().Value(roleKey).(string)
	if !ok {
		return "", fmt.Errorf("role not found in request context")
	}
	return role, nil
}
