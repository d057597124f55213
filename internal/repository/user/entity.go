package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cumulus-classroom/cumulus/internal/domains/user"
)

// UserEntity is the users table row.
type UserEntity struct {
	ID        string    `gorm:"primaryKey;type:char(36);not null"`
	Username  string    `gorm:"uniqueIndex;type:varchar(191);not null"`
	Email     string    `gorm:"uniqueIndex;type:varchar(191);not null"`
	Password  string    `gorm:"column:password_hash;type:char(60);not null"`
	DeviceID  *string   `gorm:"column:device_id;uniqueIndex;type:varchar(191)"`
	CreatedAt time.Time `gorm:"autoCreateTime;precision:3"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;precision:3"`
}

func (UserEntity) TableName() string {
	return "users"
}

func (u *UserEntity) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

func (u *UserEntity) ToDomain() *user.User {
	out := &user.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.DeviceID != nil {
		out.DeviceID = *u.DeviceID
	}
	return out
}

// NewUserEntityFromDomain maps an empty device to NULL so the unique index
// only constrains linked devices.
func NewUserEntityFromDomain(d *user.User) *UserEntity {
	e := &UserEntity{
		ID:        d.ID,
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.DeviceID != "" {
		id := d.DeviceID
		e.DeviceID = &id
	}
	return e
}

// userDocument is the shape stored in the mongo users collection.
type userDocument struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	DeviceID  string    `bson:"deviceId,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d *userDocument) toDomain() *user.User {
	return &user.User{
		ID:        d.ID,
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		DeviceID:  d.DeviceID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func newUserDocument(u *user.User) *userDocument {
	return &userDocument{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		DeviceID:  u.DeviceID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
