package core

import "strings"

// NormalizeEmail is the canonical form stored in users.email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// ErrorField names the payload field a core error refers to, or "" when the
// error is not tied to one.
func ErrorField(err error) string {
	switch err {
	case ErrEmailTaken:
		return "email"
	case ErrPasswordMismatch:
		return "confirmPassword"
	case ErrInvalidCredentials:
		return "currentPassword"
	case ErrDepartmentNotFound:
		return "departmentId"
	case ErrManagerNotFound, ErrSelfManager:
		return "managerId"
	case ErrDepartmentTaken:
		return "name"
	case ErrInvalidRole:
		return "role"
	default:
		return ""
	}
}
