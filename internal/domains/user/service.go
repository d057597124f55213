package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cumulus-classroom/cumulus/pkg/Logger"
)

const MinPasswordLength = 6

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrMissingFields      = errors.New("all fields are required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	ErrInvalidDevice         = errors.New("valid device ID is required")
	ErrDeviceAlreadyLinked   = errors.New("device already linked to this account")
	ErrDeviceLinkedElsewhere = errors.New("device is already linked to another account")
	ErrDeviceNotLinked       = errors.New("device is not linked to any account")
)

// Claims carries the account a session token was issued for.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Session is a freshly issued token together with its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, *Session, error)
	Login(ctx context.Context, req LoginRequest) (*UserResponse, *Session, error)
	Me(ctx context.Context, userID string) (*UserResponse, error)

	LinkDevice(ctx context.Context, userID, deviceID string) error
	// ResolveDevice returns the account a device has been linked to.
	ResolveDevice(ctx context.Context, deviceID string) (*User, error)

	ValidateToken(ctx context.Context, token string) (*Claims, error)
	TokenTTL() time.Duration
}

type userService struct {
	repository UserRepository
	logger     *Logger.Logger
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewUserService(repository UserRepository, logger *Logger.Logger, jwtSecret string, tokenTTL time.Duration) UserService {
	if tokenTTL == 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &userService{
		repository: repository,
		logger:     logger,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: 12,
	}
}

func (s *userService) TokenTTL() time.Duration { return s.tokenTTL }

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, *Session, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, nil, ErrMissingFields
	}
	if len(req.Password) < MinPasswordLength {
		return nil, nil, ErrPasswordTooShort
	}

	exists, err := s.repository.Exists(ctx, req.Email, req.Username)
	if err != nil {
		s.logger.Errorf("error checking user existence: %v", err)
		return nil, nil, fmt.Errorf("failed to check user: %w", err)
	}
	if exists {
		return nil, nil, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := NewUser(req, string(hashed))
	if err := s.repository.Create(ctx, u); err != nil {
		s.logger.Errorf("error creating user: %v", err)
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.issue(u.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Infof("user registered: %s (%s)", u.ID, u.Email)
	resp := u.ToResponse()
	return &resp, session, nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*UserResponse, *Session, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, nil, ErrMissingCredentials
	}

	u, err := s.repository.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Errorf("error getting user by email: %v", err)
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.issue(u.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Infof("user logged in: %s", u.ID)
	resp := u.ToResponse()
	return &resp, session, nil
}

func (s *userService) Me(ctx context.Context, userID string) (*UserResponse, error) {
	u, err := s.repository.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := u.ToResponse()
	return &resp, nil
}

// LinkDevice binds deviceID to the account. An account holds at most one
// device and a device belongs to at most one account.
func (s *userService) LinkDevice(ctx context.Context, userID, deviceID string) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return ErrInvalidDevice
	}

	u, err := s.repository.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.DeviceID != "" {
		return ErrDeviceAlreadyLinked
	}

	owner, err := s.repository.GetByDeviceID(ctx, deviceID)
	switch {
	case err == nil && owner != nil:
		return ErrDeviceLinkedElsewhere
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return fmt.Errorf("failed to look up device: %w", err)
	}

	if err := s.repository.SetDevice(ctx, userID, deviceID); err != nil {
		s.logger.Errorf("error linking device %s to %s: %v", deviceID, userID, err)
		return fmt.Errorf("failed to link device: %w", err)
	}
	s.logger.Infof("device %s linked to user %s", deviceID, userID)
	return nil
}

func (s *userService) ResolveDevice(ctx context.Context, deviceID string) (*User, error) {
	u, err := s.repository.GetByDeviceID(ctx, strings.TrimSpace(deviceID))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrDeviceNotLinked
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *userService) issue(userID string) (*Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.tokenTTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{Token: signed, ExpiresAt: expiresAt}, nil
}
