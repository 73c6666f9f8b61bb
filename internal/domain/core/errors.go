package core

import "errors"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrDepartmentNotFound = errors.New("department not found")
	ErrDepartmentTaken    = errors.New("department already exists")
	ErrManagerNotFound    = errors.New("manager not found")
	ErrSelfManager        = errors.New("a user cannot manage themselves")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("current password is incorrect")
	ErrInvalidRole        = errors.New("unknown role")
	ErrSignupDisabled     = errors.New("self sign-up is disabled")
)
