package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/vaultvoice-backend/internal/platform/ctxutil"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
)

func sign(t *testing.T, secret string, claims jwt.RegisteredClaims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), "s3cret", "vaultvoice")

	valid := jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "vaultvoice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"
	noSubject := valid
	noSubject.Subject = ""

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + sign(t, "s3cret", valid, jwt.SigningMethodHS256), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad signature", "Bearer " + sign(t, "other", valid, jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, "s3cret", expired, jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + sign(t, "s3cret", wrongIssuer, jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"no subject", "Bearer " + sign(t, "s3cret", noSubject, jwt.SigningMethodHS256), http.StatusUnauthorized},
		{"hs512 rejected", "Bearer " + sign(t, "s3cret", valid, jwt.SigningMethodHS512), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(am.RequireAuth())
			var seen string
			r.GET("/x", func(c *gin.Context) {
				seen = ctxutil.UserID(c.Request.Context())
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				assert.Equal(t, "user-1", seen)
			} else {
				assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
			}
		})
	}
}

func TestAuthWithoutSecretRejects(t *testing.T) {
	_, err := NewAuthMiddleware(nil, "", "").Subject("anything")
	assert.Error(t, err)
}
