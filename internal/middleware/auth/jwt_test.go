package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainErrors "github.com/XAOSTECH/payments.xaostech.io/internal/domain/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func createJWT(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

func validClaims(userID string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
}

func serve(t *testing.T, authHeader, path string) (*httptest.ResponseRecorder, *AuthUser) {
	t.Helper()

	e := echo.New()
	var seen *AuthUser
	handler := func(c echo.Context) error {
		user, err := GetUserFromContext(c)
		if err == nil {
			seen = user
		}
		return c.String(http.StatusOK, "ok")
	}

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := JWTMiddleware(JWTConfig{
		Secret:    testSecret,
		Logger:    zap.NewNop(),
		SkipPaths: []string{"/health", "/webhook"},
	})
	require.NoError(t, mw(handler)(c))
	return rec, seen
}

func TestJWTMiddleware_SuccessfulAuthentication(t *testing.T) {
	rec, user := serve(t, "Bearer "+createJWT(t, validClaims("u1"), testSecret), "/api/v1/users/u1/entitlements")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.UserID)
	assert.Equal(t, "u1@example.com", user.Email)
	assert.Equal(t, "authenticated", user.Role)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	expired := validClaims("u1")
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noSubject := validClaims("u1")
	delete(noSubject, "sub")

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "MISSING_AUTH_HEADER"},
		{"not bearer", "Basic abc", "INVALID_AUTH_FORMAT"},
		{"wrong secret", "Bearer " + createJWT(t, validClaims("u1"), "other-secret"), "INVALID_TOKEN"},
		{"expired", "Bearer " + createJWT(t, expired, testSecret), "INVALID_TOKEN"},
		{"garbage", "Bearer not.a.token", "INVALID_TOKEN"},
		{"no subject", "Bearer " + createJWT(t, noSubject, testSecret), "INVALID_CLAIMS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, user := serve(t, tt.header, "/api/v1/users/u1/entitlements")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
			assert.Nil(t, user)
		})
	}
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	rec, user := serve(t, "", "/webhook")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, user)
}

func TestJWTMiddleware_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, validClaims("u1"))
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	rec, _ := serve(t, "Bearer "+tokenString, "/api/v1/users/u1/entitlements")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireOwner(t *testing.T) {
	e := echo.New()
	newContext := func(user *AuthUser) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		if user != nil {
			c.SetRequest(req.WithContext(ContextWithUser(req.Context(), user)))
		}
		return c
	}

	user, err := RequireOwner(newContext(&AuthUser{UserID: "u1"}), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)

	_, err = RequireOwner(newContext(&AuthUser{UserID: "u2"}), "u1")
	assert.True(t, errors.Is(err, domainErrors.ErrAuthorization))

	_, err = RequireOwner(newContext(nil), "u1")
	assert.True(t, errors.Is(err, domainErrors.ErrAuthorization))
}
