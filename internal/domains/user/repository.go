package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an account that can own classroom devices and their notes.
// @Description User account information
type User struct {
	ID        string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username  string    `json:"username" example:"budi"`
	Email     string    `json:"email" example:"budi@example.com"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	DeviceID  string    `json:"deviceId,omitempty" example:"esp32-classroom-01"`
	CreatedAt time.Time `json:"createdAt" example:"2024-01-01T12:00:00Z"`
	UpdatedAt time.Time `json:"updatedAt" example:"2024-01-01T12:00:00Z"`
}

// RegisterRequest is the body of POST /api/auth/register. Field checks are
// done by the service so the error text stays under our control.
// @Description Request body for user registration
type RegisterRequest struct {
	Username string `json:"username" example:"budi"`
	Email    string `json:"email" example:"budi@example.com"`
	Password string `json:"password" example:"rahasia123"`
}

// LoginRequest represents login credentials
// @Description Request body for user login
type LoginRequest struct {
	Email    string `json:"email" example:"budi@example.com"`
	Password string `json:"password" example:"rahasia123"`
}

// LinkDeviceRequest is the body of POST /api/device/link.
// @Description Request body for linking a device
type LinkDeviceRequest struct {
	DeviceID string `json:"deviceId" example:"esp32-classroom-01"`
}

// UserResponse is what the API exposes about an account.
// @Description User information returned in API responses
type UserResponse struct {
	ID       string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Username string `json:"username" example:"budi"`
	Email    string `json:"email" example:"budi@example.com"`
	DeviceID string `json:"deviceId,omitempty" example:"esp32-classroom-01"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		DeviceID: u.DeviceID,
	}
}

// NewUser builds an account with a fresh ID around an already hashed password.
func NewUser(req RegisterRequest, hashedPassword string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashedPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UserRepository is implemented by the gorm and mongo stores.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*User, error)

	// Exists reports whether any account already uses email or username.
	Exists(ctx context.Context, email, username string) (bool, error)

	// SetDevice records deviceID on the account.
	SetDevice(ctx context.Context, id, deviceID string) error
}
