package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/classyshop/go-order-intake/internal/orders"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func runAuth(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, orders.AuthContext, bool) {
	t.Helper()
	a := &Auth{JWTSecret: testSecret, AdminToken: "sekrit"}
	var (
		got    orders.AuthContext
		called bool
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		got = AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	w := httptest.NewRecorder()
	a.Middleware(next).ServeHTTP(w, req)
	return w, got, called
}

func TestAuthAdminTokenHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
	req.Header.Set("X-Admin-Token", "sekrit")

	_, got, called := runAuth(t, req)
	if !called || !got.IsAdmin || got.UserID != 0 {
		t.Errorf("auth = %+v, called = %v, want admin identity", got, called)
	}
}

func TestAuthAdminAuthorizationScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
	req.Header.Set("Authorization", "Admin sekrit")

	_, got, called := runAuth(t, req)
	if !called || !got.IsAdmin {
		t.Errorf("auth = %+v, called = %v, want admin identity", got, called)
	}
}

func TestAuthValidBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{"userId": float64(7)}))

	_, got, called := runAuth(t, req)
	if !called || got.UserID != 7 || got.IsAdmin {
		t.Errorf("auth = %+v, called = %v, want user 7", got, called)
	}
}

func TestAuthMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)

	w, _, called := runAuth(t, req)
	if called {
		t.Fatal("handler must not run without credentials")
	}
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if b := decodeErr(t, w); b.Message != "Token no proporcionado" {
		t.Errorf("message = %q", b.Message)
	}
}

func TestAuthRejectedTokens(t *testing.T) {
	cases := map[string]string{
		"wrong secret":   "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"userId": float64(7)}),
		"missing userId": "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "7"}),
		"zero userId":    "Bearer " + signToken(t, testSecret, jwt.MapClaims{"userId": float64(0)}),
		"garbage":        "Bearer not.a.jwt",
		"wrong admin":    "Admin nope",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
			req.Header.Set("Authorization", header)

			w, _, called := runAuth(t, req)
			if called {
				t.Fatal("handler must not run with rejected credentials")
			}
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}
