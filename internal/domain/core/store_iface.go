package core

import "context"

type StoreAPI interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (string, error)
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, userID string) (User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	PasswordHash(ctx context.Context, userID string) (string, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateName(ctx context.Context, userID, name string) error
	DepartmentExists(ctx context.Context, departmentID string) (bool, error)
	ListDepartments(ctx context.Context) ([]Department, error)
	CreateDepartment(ctx context.Context, name string) (Department, error)
}
