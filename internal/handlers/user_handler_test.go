package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-classroom/cumulus/internal/domains/user"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

func userRouter(users *fakeUsers) http.Handler {
	h := NewUserHandler(users, CookieOptions{Name: testCookie}, Logger.NewNop())
	r := newEngine()
	auth := AuthMiddleware(users, testCookie, Logger.NewNop())
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/logout", h.Logout)
	r.GET("/api/auth/me", auth, h.Me)
	r.POST("/api/device/link", auth, h.LinkDevice)
	return r
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == testCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", testCookie)
	return nil
}

func TestRegisterSetsSessionCookie(t *testing.T) {
	users := newFakeUsers()
	w := doJSON(t, userRouter(users), http.MethodPost, "/api/auth/register",
		user.RegisterRequest{Username: "ayu", Email: "ayu@school.test", Password: "secret1"}, "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[AuthResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "ayu", resp.User.Username)

	cookie := sessionCookie(t, w.Result())
	assert.Equal(t, tokenFor("ayu"), cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegisterErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		body any
		want string
	}{
		{"malformed body", nil, "{", "All fields are required"},
		{"missing fields", user.ErrMissingFields, user.RegisterRequest{}, "All fields are required"},
		{"short password", user.ErrPasswordTooShort, user.RegisterRequest{Username: "a", Email: "a@b", Password: "1"}, "Password must be at least 6 characters"},
		{"duplicate", user.ErrUserExists, user.RegisterRequest{Username: "a", Email: "a@b", Password: "123456"}, "User already exists"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := newFakeUsers()
			users.registerErr = tc.err
			w := doJSON(t, userRouter(users), http.MethodPost, "/api/auth/register", tc.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.want, decode[ErrorResponse](t, w).Error)
		})
	}
}

func TestLogin(t *testing.T) {
	users := newFakeUsers("budi")
	r := userRouter(users)

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", user.LoginRequest{Email: "budi@school.test", Password: "whatever"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tokenFor("budi"), sessionCookie(t, w.Result()).Value)

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", user.LoginRequest{Email: "nobody@school.test", Password: "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid credentials", decode[ErrorResponse](t, w).Error)

	users.loginErr = user.ErrMissingCredentials
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", user.LoginRequest{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Email and password are required", decode[ErrorResponse](t, w).Error)
}

func TestMeAndLogout(t *testing.T) {
	users := newFakeUsers("citra")
	r := userRouter(users)

	w := doJSON(t, r, http.MethodGet, "/api/auth/me", nil, tokenFor("citra"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "citra@school.test", decode[ProfileResponse](t, w).User.Email)

	w = doJSON(t, r, http.MethodPost, "/api/auth/logout", nil, tokenFor("citra"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[LogoutResponse](t, w).Success)
	cookie := sessionCookie(t, w.Result())
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)
}

func TestLinkDevice(t *testing.T) {
	users := newFakeUsers("dewi")
	r := userRouter(users)

	w := doJSON(t, r, http.MethodPost, "/api/device/link", user.LinkDeviceRequest{DeviceID: "esp32-01"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/device/link", user.LinkDeviceRequest{DeviceID: "esp32-01"}, tokenFor("dewi"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, LinkDeviceResponse{Success: true, DeviceID: "esp32-01"}, decode[LinkDeviceResponse](t, w))

	for err, want := range map[error]string{
		user.ErrInvalidDevice:         "Valid device ID is required",
		user.ErrDeviceAlreadyLinked:   "Device already linked to this account",
		user.ErrDeviceLinkedElsewhere: "Device is already linked to another account",
	} {
		users.linkErr = err
		w = doJSON(t, r, http.MethodPost, "/api/device/link", user.LinkDeviceRequest{DeviceID: "esp32-01"}, tokenFor("dewi"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, want, decode[ErrorResponse](t, w).Error)
	}
}
