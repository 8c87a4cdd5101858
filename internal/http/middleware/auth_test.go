package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"microwallet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRevocations map[string]bool

func (s staticRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "broken" {
		return false, errors.New("redis down")
	}
	return s[jti], nil
}

func protected(tokens *service.TokenService, revoked RevocationChecker) *gin.Engine {
	r := gin.New()
	r.GET("/me", JWT(tokens, revoked), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt64(ContextUserID)})
	})
	return r
}

func call(r http.Handler, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAcceptsValidToken(t *testing.T) {
	tokens := service.NewTokenService("secret", time.Hour)
	token, err := tokens.Issue(42)
	require.NoError(t, err)

	w := call(protected(tokens, nil), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42}`, w.Body.String())
}

func TestJWTRejections(t *testing.T) {
	tokens := service.NewTokenService("secret", time.Hour)
	expired, err := service.NewTokenService("secret", -time.Minute).Issue(1)
	require.NoError(t, err)
	foreign, err := service.NewTokenService("other", time.Hour).Issue(1)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"not bearer":   "Basic abc",
		"empty bearer": "Bearer ",
		"garbage":      "Bearer not-a-jwt",
		"expired":      "Bearer " + expired,
		"wrong secret": "Bearer " + foreign,
	} {
		t.Run(name, func(t *testing.T) {
			w := call(protected(tokens, nil), header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"success":false,"message":"Unauthorized"}`, w.Body.String())
		})
	}
}

func TestJWTRevokedToken(t *testing.T) {
	tokens := service.NewTokenService("secret", time.Hour)
	token, err := tokens.Issue(7)
	require.NoError(t, err)
	claims, err := tokens.Verify(token)
	require.NoError(t, err)

	w := call(protected(tokens, staticRevocations{claims.ID: true}), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(protected(tokens, staticRevocations{}), "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminToken(t *testing.T) {
	handler := func(c *gin.Context) { c.Status(http.StatusOK) }

	disabled := gin.New()
	disabled.GET("/me", AdminToken(""), handler)
	assert.Equal(t, http.StatusNotFound, call(disabled, "Bearer anything").Code)

	enabled := gin.New()
	enabled.GET("/me", AdminToken("s3cret"), handler)
	assert.Equal(t, http.StatusUnauthorized, call(enabled, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(enabled, "Bearer wrong").Code)
	assert.Equal(t, http.StatusOK, call(enabled, "Bearer s3cret").Code)
}

func TestRequestIDPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = call(r, "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
