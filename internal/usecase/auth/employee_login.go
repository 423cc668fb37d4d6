package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/riolentius/retail-backoffice/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveEmployee   = errors.New("employee inactive")
)

const TokenType = "employee"

type EmployeeFinder interface {
	FindByEmail(ctx context.Context, email string) (*Employee, error)
}

type Employee struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	IsActive     bool
	Permissions  []session.Action
}

type LoginResult struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"` // seconds
}

type EmployeeLoginUsecase struct {
	finder    EmployeeFinder
	jwtSecret []byte
	expMin    int
	now       func() time.Time
}

func NewEmployeeLoginUsecase(finder EmployeeFinder, jwtSecret string, expiresMinutes int) *EmployeeLoginUsecase {
	if expiresMinutes <= 0 {
		expiresMinutes = 60
	}
	return &EmployeeLoginUsecase{
		finder:    finder,
		jwtSecret: []byte(jwtSecret),
		expMin:    expiresMinutes,
		now:       time.Now,
	}
}

func (u *EmployeeLoginUsecase) Execute(ctx context.Context, email, password string) (*LoginResult, error) {
	emp, err := u.finder.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Hide whether email exists
		return nil, ErrInvalidCredentials
	}
	if !emp.IsActive {
		return nil, ErrInactiveEmployee
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := u.now()
	exp := now.Add(time.Duration(u.expMin) * time.Minute)

	claims := jwt.MapClaims{
		"sub":   emp.ID,
		"tid":   emp.TenantID,
		"perm":  session.Strings(emp.Permissions),
		"typ":   TokenType,
		"email": emp.Email,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(u.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: signed,
		ExpiresIn:   u.expMin * 60,
	}, nil
}
