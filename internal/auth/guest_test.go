package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/mind-engage/mindengage-qti/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qti/internal/config"
	"github.com/mind-engage/mindengage-qti/internal/rbac"
)

func TestGuestLogin(t *testing.T) {
	a := authmw.NewAuthService("secret", time.Hour)
	cfg := config.Defaults()

	rec := httptest.NewRecorder()
	GuestLoginHandler(a, cfg)(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code, "disabled by default")

	cfg.EnableGuestAuth = true
	rec = httptest.NewRecorder()
	GuestLoginHandler(a, cfg)(rec, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, strings.HasPrefix(cookies[0].Value, guestPrefix))

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	c, err := a.Parse(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, cookies[0].Value, c.Subject)
	assert.Equal(t, rbac.RoleCandidate, c.Role)

	// the cookie brings back the same guest
	req := httptest.NewRequest(http.MethodPost, "/auth/guest", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	GuestLoginHandler(a, cfg)(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	c, err = a.Parse(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, cookies[0].Value, c.Subject)
}
