package models

// Роли пользователей в access токене
const (
	RoleCustomer      = "customer"
	RoleDermatologist = "dermatologist"
	RoleAdmin         = "admin"
)

func IsKnownRole(role string) bool {
	switch role {
	case RoleCustomer, RoleDermatologist, RoleAdmin:
		return true
	}
	return false
}
