package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaims struct {
	userID int64
	role   string
}

func (c *fakeClaims) GetUserID() int64 { return c.userID }
func (c *fakeClaims) GetRole() string  { return c.role }

// fakeValidator accepts tokens from its table and rejects everything else
type fakeValidator struct {
	tokens map[string]*fakeClaims
}

func (v *fakeValidator) ValidateToken(tokenString string) (ClaimsGetter, error) {
	if claims, ok := v.tokens[tokenString]; ok {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

type fakeRoleLookup struct {
	roles map[int64]string
}

func (l *fakeRoleLookup) GetUserRole(_ context.Context, userID int64) (string, error) {
	if role, ok := l.roles[userID]; ok {
		return role, nil
	}
	return "", fmt.Errorf("user not found")
}

func identityEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserID(r)
		require.NoError(t, err)
		role, err := GetRole(r)
		require.NoError(t, err)
		fmt.Fprintf(w, "%d:%s", userID, role)
	})
}

func TestAuth_BearerHeader(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"good": {userID: 42, role: "hr"},
	}}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()

	Auth(validator)(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42:hr", rec.Body.String())
}

func TestAuth_Cookie(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"cookie-token": {userID: 7, role: "candidate"},
	}}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
	rec := httptest.NewRecorder()

	Auth(validator)(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7:candidate", rec.Body.String())
}

func TestAuth_QueryParam(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"ws-token": {userID: 5, role: "admin"},
	}}

	req := httptest.NewRequest("GET", "/api/chat/ws?token=ws-token", nil)
	rec := httptest.NewRecorder()

	Auth(validator)(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5:admin", rec.Body.String())
}

func TestAuth_HeaderTakesPrecedence(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"header-token": {userID: 1, role: "hr"},
		"query-token":  {userID: 2, role: "hr"},
	}}

	req := httptest.NewRequest("GET", "/api/users/me?token=query-token", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	rec := httptest.NewRecorder()

	Auth(validator)(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, "1:hr", rec.Body.String())
}

func TestAuth_MissingToken(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{}}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	rec := httptest.NewRecorder()

	Auth(validator)(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{}}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()

	Auth(validator)(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MalformedAuthorizationHeader(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"good": {userID: 1, role: "hr"},
	}}

	req := httptest.NewRequest("GET", "/api/users/me", nil)
	req.Header.Set("Authorization", "good") // missing Bearer prefix
	rec := httptest.NewRecorder()

	Auth(validator)(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles_Allowed(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"good": {userID: 1, role: "admin"},
	}}

	req := httptest.NewRequest("DELETE", "/api/requisitions/1", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()

	RequireRoles(validator, nil, "admin")(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoles_Forbidden(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"good": {userID: 1, role: "candidate"},
	}}

	req := httptest.NewRequest("POST", "/api/offer", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()

	RequireRoles(validator, nil, "admin", "hr")(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "requires role admin or hr, have candidate")
}

func TestRequireRoles_StaleClaimRecheckedAgainstStorage(t *testing.T) {
	// the token still says candidate but storage says hr
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"stale": {userID: 9, role: "candidate"},
	}}
	lookup := &fakeRoleLookup{roles: map[int64]string{9: "hr"}}

	req := httptest.NewRequest("POST", "/api/offer/1/approve", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()

	RequireRoles(validator, lookup, "hr")(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "9:hr", rec.Body.String())
}

func TestRequireRoles_LookupFailureStillForbidden(t *testing.T) {
	validator := &fakeValidator{tokens: map[string]*fakeClaims{
		"stale": {userID: 9, role: "candidate"},
	}}
	lookup := &fakeRoleLookup{roles: map[int64]string{}}

	req := httptest.NewRequest("POST", "/api/offer/1/approve", nil)
	req.Header.Set("Authorization", "Bearer stale")
	rec := httptest.NewRecorder()

	RequireRoles(validator, lookup, "hr")(identityEcho(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetUserID_MissingFromContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, err := GetUserID(req)
	assert.Error(t, err)
	_, err = GetRole(req)
	assert.Error(t, err)
}
