package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	id           int64
	username     string
	email        string
	displayName  string
	passwordHash string
	isStaff      bool
	isActive     bool
	dateJoined   time.Time
}

func New(username, email string, isStaff bool) User {
	return User{
		username: strings.TrimSpace(username),
		email:    strings.TrimSpace(email),
		isStaff:  isStaff,
		isActive: true,
	}
}

func Hydrate(
	id int64,
	username string,
	email string,
	displayName string,
	passwordHash string,
	isStaff bool,
	isActive bool,
	dateJoined time.Time,
) User {
	return User{
		id:           id,
		username:     username,
		email:        email,
		displayName:  displayName,
		passwordHash: passwordHash,
		isStaff:      isStaff,
		isActive:     isActive,
		dateJoined:   dateJoined,
	}
}

func (u User) ID() int64             { return u.id }
func (u User) Username() string      { return u.username }
func (u User) Email() string         { return u.email }
func (u User) PasswordHash() string  { return u.passwordHash }
func (u User) IsStaff() bool         { return u.isStaff }
func (u User) IsActive() bool        { return u.isActive }
func (u User) DateJoined() time.Time { return u.dateJoined }

func (u User) DisplayName() string {
	if u.displayName != "" {
		return u.displayName
	}
	return u.username
}

func (u User) WithID(id int64) User {
	u.id = id
	return u
}

func (u User) WithDisplayName(name string) User {
	u.displayName = strings.TrimSpace(name)
	return u
}

// WithPassword returns a copy holding the bcrypt hash of password.
func (u User) WithPassword(password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return u, err
	}
	u.passwordHash = string(hash)
	return u, nil
}

func (u User) CheckPassword(password string) bool {
	if u.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) == nil
}
