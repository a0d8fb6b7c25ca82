package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/fundraising-backend/internal/domain/entity"
)

// EmployeeClaims - клеймы access токена сотрудника бэк-офиса.
type EmployeeClaims struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager отвечает за выпуск и проверку JWT.
// Токены выпускает SSO бэк-офиса; IssueAccess нужен сидеру и тестам.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// IssueAccess выпускает access токен для сотрудника.
func (m *TokenManager) IssueAccess(employee entity.Employee) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)

	claims := EmployeeClaims{
		Name:        employee.Name,
		Designation: employee.Designation,
		Role:        employee.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   employee.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// ParseAccess проверяет подпись и срок токена и собирает из клеймов сотрудника.
func (m *TokenManager) ParseAccess(token string) (entity.Employee, error) {
	parsed, err := jwt.ParseWithClaims(token, &EmployeeClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный алгоритм подписи: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return entity.Employee{}, err
	}

	claims, ok := parsed.Claims.(*EmployeeClaims)
	if !ok || !parsed.Valid {
		return entity.Employee{}, jwt.ErrTokenInvalidClaims
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return entity.Employee{}, jwt.ErrTokenInvalidClaims
	}

	return entity.Employee{
		ID:          id,
		Name:        claims.Name,
		Designation: claims.Designation,
		Role:        claims.Role,
	}, nil
}
