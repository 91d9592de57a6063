package account

import (
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("an account with this email and account type already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyActive      = errors.New("account already active")
)

type Type int

const (
	TypeJobSeeker Type = 1
	TypeEmployer  Type = 2
)

func (t Type) String() string {
	switch t {
	case TypeJobSeeker:
		return "Job Seeker"
	case TypeEmployer:
		return "Employer"
	}
	return ""
}

type Visibility int

const (
	VisibilityPrivate Visibility = 0
	VisibilityPublic  Visibility = 1
)

type Account struct {
	ID           string
	UID          string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Type         Type
	IsActive     bool
	CreatedAt    time.Time
}

func (a Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

func (a Account) IsJobSeeker() bool {
	return a.Type == TypeJobSeeker
}

func (a Account) IsEmployer() bool {
	return a.Type == TypeEmployer
}

type JobSeeker struct {
	Account
	ResumeID       sql.NullString
	ResumeFileName sql.NullString
	Visibility     Visibility
}

type Employer struct {
	ID          int
	AccountID   string
	CompanyName string
	About       string
	Slug        string
}

type SignupRq struct {
	FirstName   string `form:"first_name" validate:"required,max=50"`
	LastName    string `form:"last_name" validate:"required,max=50"`
	Email       string `form:"email" validate:"required,email,max=255"`
	Password1   string `form:"password1" validate:"required,min=8,max=72"`
	Password2   string `form:"password2" validate:"required,eqfield=Password1"`
	AccountType int    `form:"account_type" validate:"required,oneof=1 2"`
	CompanyName string `form:"company_name" validate:"max=200"`
}

type ProfileRq struct {
	FirstName  string `form:"first_name" validate:"required,max=50"`
	LastName   string `form:"last_name" validate:"required,max=50"`
	Visibility int    `form:"visibility" validate:"oneof=0 1"`
}
