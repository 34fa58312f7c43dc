package models

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Email           string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password        string          `gorm:"type:varchar(255);not null" json:"-"`
	EmailVerifiedAt *time.Time      `gorm:"default:null" json:"email_verified_at"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	SocialAccounts  []SocialAccount `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// NewUser builds an unsaved user with a hashed password.
func NewUser(name, email, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &User{
		Name:     name,
		Email:    email,
		Password: pw,
	}, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// DummyPasswordCheck burns the same bcrypt cost as a real comparison. Login
// calls it for unknown emails so response timing does not reveal whether an
// account exists.
func DummyPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("foxauth-dummy-password"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

// RandomPassword returns a random secret used as an unusable placeholder for
// accounts created through social login.
func RandomPassword() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

func (u *User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}

// EmailVerificationHash is the hex sha1 of the email, embedded in
// verification links.
func (u *User) EmailVerificationHash() string {
	sum := sha1.Sum([]byte(u.Email))
	return hex.EncodeToString(sum[:])
}
