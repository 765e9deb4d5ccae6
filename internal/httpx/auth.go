package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/classyshop/go-order-intake/internal/orders"
)

type ctxKey int

const authCtxKey ctxKey = iota

// AuthFromContext returns the caller identity placed by Auth.Middleware. The
// zero value means an unauthenticated caller, which the middleware never lets
// through.
func AuthFromContext(ctx context.Context) orders.AuthContext {
	auth, _ := ctx.Value(authCtxKey).(orders.AuthContext)
	return auth
}

// Auth resolves the caller: a matching admin token grants IsAdmin, otherwise
// a Bearer JWT is required and its userId claim becomes the acting user.
type Auth struct {
	JWTSecret  string
	AdminToken string
}

func adminToken(r *http.Request) string {
	if t := r.Header.Get("X-Admin-Token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Admin ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Admin "))
	}
	return ""
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.AdminToken != "" && adminToken(r) == a.AdminToken {
			ctx := context.WithValue(r.Context(), authCtxKey, orders.AuthContext{IsAdmin: true})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, errBody{Message: "Token no proporcionado"})
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			return []byte(a.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			writeJSON(w, http.StatusUnauthorized, errBody{Message: "Token invalido"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errBody{Message: "Token invalido"})
			return
		}
		userID, ok := claims["userId"].(float64)
		if !ok || userID <= 0 {
			writeJSON(w, http.StatusUnauthorized, errBody{Message: "Token invalido"})
			return
		}

		ctx := context.WithValue(r.Context(), authCtxKey, orders.AuthContext{UserID: int64(userID)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
