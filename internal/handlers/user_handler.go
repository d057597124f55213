package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cumulus-classroom/cumulus/internal/domains/user"
	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// UserHandler handles authentication and device linking.
type UserHandler struct {
	userService user.UserService
	cookie      CookieOptions
	logger      *Logger.Logger
}

func NewUserHandler(userService user.UserService, cookie CookieOptions, logger *Logger.Logger) *UserHandler {
	if cookie.Name == "" {
		cookie.Name = "token"
	}
	return &UserHandler{
		userService: userService,
		cookie:      cookie,
		logger:      logger,
	}
}

func (h *UserHandler) setSession(c *gin.Context, session *user.Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, session.Token, int(h.userService.TokenTTL().Seconds()), "/", "", h.cookie.Secure, true)
}

// Register handles user registration
// @Summary Register a new user
// @Description Create an account and start a session cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body user.RegisterRequest true "User registration data"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse "Missing fields, short password or existing user"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "All fields are required"})
		return
	}

	resp, session, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrMissingFields):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "All fields are required"})
		case errors.Is(err, user.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Password must be at least 6 characters"})
		case errors.Is(err, user.ErrUserExists):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "User already exists"})
		default:
			h.logger.Errorf("registration error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	h.setSession(c, session)
	// the device is never set at registration
	resp.DeviceID = ""
	c.JSON(http.StatusOK, AuthResponse{Success: true, User: *resp})
}

// Login handles user login
// @Summary User login
// @Description Authenticate with email and password and start a session cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body user.LoginRequest true "User login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse "Email and password are required"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email and password are required"})
		return
	}

	resp, session, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrMissingCredentials):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email and password are required"})
		case errors.Is(err, user.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		default:
			h.logger.Errorf("login error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	h.setSession(c, session)
	c.JSON(http.StatusOK, AuthResponse{Success: true, User: *resp})
}

// Me returns the signed-in account
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} ErrorResponse "Not authenticated or invalid token"
// @Failure 404 {object} ErrorResponse "User not found"
// @Router /auth/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := ExtractUserID(c)
	if !ok {
		return
	}

	resp, err := h.userService.Me(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
			return
		}
		h.logger.Errorf("auth check error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{User: *resp})
}

// Logout clears the session cookie
// @Summary Logout
// @Tags Authentication
// @Produce json
// @Success 200 {object} LogoutResponse
// @Router /auth/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, LogoutResponse{Success: true})
}

// LinkDevice binds a classroom device to the signed-in account
// @Summary Link a device
// @Tags Devices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body user.LinkDeviceRequest true "Device to link"
// @Success 200 {object} LinkDeviceResponse
// @Failure 400 {object} ErrorResponse "Invalid or already linked device"
// @Failure 401 {object} ErrorResponse "Not authenticated"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /device/link [post]
func (h *UserHandler) LinkDevice(c *gin.Context) {
	userID, ok := ExtractUserID(c)
	if !ok {
		return
	}

	var req user.LinkDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Valid device ID is required"})
		return
	}

	err := h.userService.LinkDevice(c.Request.Context(), userID, req.DeviceID)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidDevice):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Valid device ID is required"})
		case errors.Is(err, user.ErrDeviceAlreadyLinked):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Device already linked to this account"})
		case errors.Is(err, user.ErrDeviceLinkedElsewhere):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Device is already linked to another account"})
		case errors.Is(err, user.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		default:
			h.logger.Errorf("device linking error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, LinkDeviceResponse{Success: true, DeviceID: req.DeviceID})
}
