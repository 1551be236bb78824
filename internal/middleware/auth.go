package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/workfin/practice-api/internal/authz"
	"github.com/workfin/practice-api/internal/models"
)

// JWTMiddleware validates bearer tokens issued by the identity service and
// attaches the tenant, user, and role claims to the request context. This
// service never issues tokens, it only consumes them.
func JWTMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
				return
			}
			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}
			userRoles, ok := extractRolesFromClaims(claims)
			if !ok {
				http.Error(w, "Missing role claim", http.StatusUnauthorized)
				return
			}

			tenantID, ok := claims["tid"].(string)
			if !ok {
				http.Error(w, "Missing token claim", http.StatusUnauthorized)
				return
			}
			userID, _ := claims["sub"].(string)
			ctx := authz.WithIdentity(r.Context(), tenantID, userID, userRoles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractRolesFromClaims(claims jwt.MapClaims) ([]models.UserRole, bool) {
	rawRoles, ok := claims["roles"]
	if !ok {
		if single, ok := claims["role"].(string); ok && single != "" {
			role := models.UserRole(single)
			if !models.IsValidRole(role) {
				return nil, false
			}
			return []models.UserRole{role}, true
		}
		return nil, false
	}

	var roles []models.UserRole
	switch v := rawRoles.(type) {
	case []interface{}:
		for _, val := range v {
			str, ok := val.(string)
			if !ok {
				return nil, false
			}
			role := models.UserRole(str)
			if !models.IsValidRole(role) {
				return nil, false
			}
			roles = append(roles, role)
		}
	case []string:
		for _, str := range v {
			role := models.UserRole(str)
			if !models.IsValidRole(role) {
				return nil, false
			}
			roles = append(roles, role)
		}
	case string:
		roles = []models.UserRole{models.UserRole(v)}
	default:
		return nil, false
	}

	normalized := models.EnsureDefaultRole(models.NormalizeRoles(roles))
	if !models.IsValidRoleList(normalized) {
		return nil, false
	}
	return normalized, true
}
