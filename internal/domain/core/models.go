package core

import "time"

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	DepartmentID   string    `json:"departmentId"`
	DepartmentName string    `json:"departmentName"`
	ManagerID      string    `json:"managerId"`
	ManagerName    string    `json:"managerName"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type RegisterInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type CreateUserInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Password     string `json:"password" validate:"omitempty,min=6,max=72"`
	Role         string `json:"role" validate:"required,oneof=SYS DM DDM TL EMP"`
	DepartmentID string `json:"departmentId" validate:"omitempty,uuid"`
	ManagerID    string `json:"managerId" validate:"omitempty,uuid"`
}

// UpdateUserInput leaves the e-mail unchanged when Email is empty.
type UpdateUserInput struct {
	Name         string `json:"name" validate:"required,max=200"`
	Email        string `json:"email" validate:"omitempty,email,max=254"`
	Role         string `json:"role" validate:"required,oneof=SYS DM DDM TL EMP"`
	DepartmentID string `json:"departmentId" validate:"omitempty,uuid"`
	ManagerID    string `json:"managerId" validate:"omitempty,uuid"`
}

type ProfileInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

type PasswordChangeInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type DepartmentInput struct {
	Name string `json:"name" validate:"required,max=200"`
}
