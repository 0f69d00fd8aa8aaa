package models

import (
	"time"

	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	UserName          string                  `gorm:"type:varchar(14);not null;uniqueIndex"`
	Email             string                  `gorm:"type:varchar(256);not null;index"`
	EmailConfirmed    bool                    `gorm:"not null;default:false"`
	PasswordHash      string                  `gorm:"type:varchar(255);not null"`
	FullUserName      string                  `gorm:"type:varchar(200)"`
	SignatureStatus   account.SignatureStatus `gorm:"type:smallint;not null;default:0"`
	SecurityStamp     string                  `gorm:"type:varchar(64);not null"`
	FailedAttempts    int                     `gorm:"not null;default:0"`
	LockoutEnd        *time.Time
	LastLoginAt       *time.Time `gorm:"index"`
	LastLoginIP       string     `gorm:"type:varchar(45)"`
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserName:          m.UserName,
		Email:             m.Email,
		EmailConfirmed:    m.EmailConfirmed,
		PasswordHash:      m.PasswordHash,
		FullUserName:      m.FullUserName,
		SignatureStatus:   m.SignatureStatus,
		SecurityStamp:     m.SecurityStamp,
		FailedAttempts:    m.FailedAttempts,
		LockoutEnd:        m.LockoutEnd,
		LastLoginAt:       m.LastLoginAt,
		LastLoginIP:       m.LastLoginIP,
		PasswordChangedAt: m.PasswordChangedAt,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.UserName = u.UserName
	m.Email = u.Email
	m.EmailConfirmed = u.EmailConfirmed
	m.PasswordHash = u.PasswordHash
	m.FullUserName = u.FullUserName
	m.SignatureStatus = u.SignatureStatus
	m.SecurityStamp = u.SecurityStamp
	m.FailedAttempts = u.FailedAttempts
	m.LockoutEnd = u.LockoutEnd
	m.LastLoginAt = u.LastLoginAt
	m.LastLoginIP = u.LastLoginIP
	m.PasswordChangedAt = u.PasswordChangedAt
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}

// AuthenticationTokenModel is the persistence model for one-time tokens
// handed to relying applications
type AuthenticationTokenModel struct {
	BaseModel
	Token      string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	Domain     string    `gorm:"type:varchar(255);not null"`
	UserName   string    `gorm:"type:varchar(14);not null;index"`
	Expiration time.Time `gorm:"not null;index"`
	UsedAt     *time.Time
}

// TableName returns the table name for GORM
func (AuthenticationTokenModel) TableName() string {
	return "authentication_tokens"
}

// ToDomain converts the model to the domain token
func (m *AuthenticationTokenModel) ToDomain() *identity.AuthenticationToken {
	return &identity.AuthenticationToken{
		BaseEntity: m.BaseModel.ToDomain(),
		Token:      m.Token,
		Domain:     m.Domain,
		UserName:   m.UserName,
		Expiration: m.Expiration,
		UsedAt:     m.UsedAt,
	}
}

// AuthenticationTokenModelFromDomain creates the model from a domain token
func AuthenticationTokenModelFromDomain(t *identity.AuthenticationToken) *AuthenticationTokenModel {
	m := &AuthenticationTokenModel{
		Token:      t.Token,
		Domain:     t.Domain,
		UserName:   t.UserName,
		Expiration: t.Expiration,
		UsedAt:     t.UsedAt,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}
