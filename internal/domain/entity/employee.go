package entity

import "github.com/google/uuid"

const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// Employee - сотрудник бэк-офиса, выполняющий действие. Приходит из контекста авторизации.
type Employee struct {
	ID          uuid.UUID
	Name        string
	Designation string
	Role        string
}

// CanProcessWithdrawals сообщает, может ли сотрудник проводить выплаты.
func (e Employee) CanProcessWithdrawals() bool {
	if e.ID == uuid.Nil {
		return false
	}
	return e.Role == RoleEmployee || e.Role == RoleAdmin
}
