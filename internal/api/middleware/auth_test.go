package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/cugino/restaurant-auth/internal/core/domain"
	"github.com/cugino/restaurant-auth/internal/core/service"
)

const testSecret = "test-secret"

func testToken(t *testing.T, secret string, mutate func(jwt.MapClaims)) string {
	t.Helper()
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"user_id":          float64(7),
		"name":             "alice",
		"role":             "admin",
		"establishment_id": float64(10),
		"iat":              now.Unix(),
		"exp":              now.Add(time.Hour).Unix(),
		"iss":              service.TokenIssuer,
		"aud":              service.TokenAudience,
	}
	if mutate != nil {
		mutate(claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthContext(authorization string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestAuth_ValidToken(t *testing.T) {
	c := newAuthContext("Bearer " + testToken(t, testSecret, nil))

	var sawIdentity bool
	err := Auth(testSecret)(func(c echo.Context) error {
		sawIdentity = true
		if got, _ := c.Get(CtxUserID).(int64); got != 7 {
			t.Errorf("user id = %v", c.Get(CtxUserID))
		}
		if got, _ := c.Get(CtxUserName).(string); got != "alice" {
			t.Errorf("user name = %v", c.Get(CtxUserName))
		}
		if got, _ := c.Get(CtxUserRole).(string); got != "admin" {
			t.Errorf("user role = %v", c.Get(CtxUserRole))
		}
		if got, _ := c.Get(CtxEstablishmentID).(int64); got != 10 {
			t.Errorf("establishment id = %v", c.Get(CtxEstablishmentID))
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("Auth: %v", err)
	}
	if !sawIdentity {
		t.Fatalf("handler not invoked")
	}
}

func TestAuth_Rejections(t *testing.T) {
	cases := []struct {
		label         string
		authorization string
		want          error
	}{
		{"missing header", "", domain.NewAuthenticationError("missing authentication token")},
		{"wrong scheme", "Basic abc123", domain.NewAuthenticationError("invalid token format, use: Bearer <token>")},
		{"garbage token", "Bearer not-a-token", domain.ErrTokenInvalid},
		{"foreign signature", "Bearer " + testToken(t, "other-secret", nil), domain.ErrTokenInvalid},
		{"expired", "Bearer " + testToken(t, testSecret, func(c jwt.MapClaims) {
			c["exp"] = time.Now().Add(-time.Minute).Unix()
		}), domain.ErrTokenExpired},
		{"not yet valid", "Bearer " + testToken(t, testSecret, func(c jwt.MapClaims) {
			c["nbf"] = time.Now().Add(time.Hour).Unix()
		}), domain.ErrTokenNotYetValid},
		{"wrong issuer", "Bearer " + testToken(t, testSecret, func(c jwt.MapClaims) {
			c["iss"] = "someone-else"
		}), domain.ErrTokenInvalid},
		{"wrong audience", "Bearer " + testToken(t, testSecret, func(c jwt.MapClaims) {
			c["aud"] = "other-client"
		}), domain.ErrTokenInvalid},
	}

	for _, tc := range cases {
		c := newAuthContext(tc.authorization)
		err := Auth(testSecret)(okHandler)(c)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.label, err, tc.want)
		}
	}
}

func TestAuth_CaseInsensitiveScheme(t *testing.T) {
	c := newAuthContext("bearer " + testToken(t, testSecret, nil))
	if err := Auth(testSecret)(okHandler)(c); err != nil {
		t.Fatalf("lowercase scheme rejected: %v", err)
	}
}

func TestOptionalAuth(t *testing.T) {
	// Anonymous request passes through without identity.
	c := newAuthContext("")
	err := OptionalAuth(testSecret)(func(c echo.Context) error {
		if c.Get(CtxUserID) != nil {
			t.Errorf("anonymous request carries an identity")
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("OptionalAuth anonymous: %v", err)
	}

	// A bad token is ignored, not rejected.
	c = newAuthContext("Bearer garbage")
	if err := OptionalAuth(testSecret)(okHandler)(c); err != nil {
		t.Fatalf("OptionalAuth bad token: %v", err)
	}

	// A good token attaches the identity.
	c = newAuthContext("Bearer " + testToken(t, testSecret, nil))
	err = OptionalAuth(testSecret)(func(c echo.Context) error {
		if got, _ := c.Get(CtxUserID).(int64); got != 7 {
			t.Errorf("user id = %v", c.Get(CtxUserID))
		}
		return nil
	})(c)
	if err != nil {
		t.Fatalf("OptionalAuth valid token: %v", err)
	}
}
