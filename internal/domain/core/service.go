package core

import (
	"context"
	"strings"

	"kpi/internal/domain/auth"
)

type Options struct {
	AllowSelfSignup bool
	// DefaultPassword is assigned when an administrator creates a user without one.
	DefaultPassword string
}

type Service struct {
	store StoreAPI
	opts  Options
}

func NewService(store StoreAPI, opts Options) *Service {
	return &Service{store: store, opts: opts}
}

// Register creates an EMP account from the public sign-up form.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if !s.opts.AllowSelfSignup {
		return User{}, ErrSignupDisabled
	}
	if in.Password != in.ConfirmPassword {
		return User{}, ErrPasswordMismatch
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email: NormalizeEmail(in.Email),
		Name:  normalizeName(in.Name),
		Role:  auth.RoleEmployee,
	}
	id, err := s.store.CreateUser(ctx, user, hash)
	if err != nil {
		return User{}, err
	}
	return s.store.GetUser(ctx, id)
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (User, error) {
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if !auth.ValidRole(role) {
		return User{}, ErrInvalidRole
	}
	if err := s.checkAssignment(ctx, "", in.DepartmentID, in.ManagerID); err != nil {
		return User{}, err
	}
	password := in.Password
	if password == "" {
		password = s.opts.DefaultPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}
	id, err := s.store.CreateUser(ctx, User{
		Email:        NormalizeEmail(in.Email),
		Name:         normalizeName(in.Name),
		Role:         role,
		DepartmentID: in.DepartmentID,
		ManagerID:    in.ManagerID,
	}, hash)
	if err != nil {
		return User{}, err
	}
	return s.store.GetUser(ctx, id)
}

// UpdateUser returns the user before and after the change.
func (s *Service) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) (User, User, error) {
	before, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return User{}, User{}, err
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if !auth.ValidRole(role) {
		return User{}, User{}, ErrInvalidRole
	}
	if err := s.checkAssignment(ctx, userID, in.DepartmentID, in.ManagerID); err != nil {
		return User{}, User{}, err
	}
	updated := before
	updated.Name = normalizeName(in.Name)
	if email := NormalizeEmail(in.Email); email != "" {
		updated.Email = email
	}
	updated.Role = role
	updated.DepartmentID = in.DepartmentID
	updated.ManagerID = in.ManagerID
	if err := s.store.UpdateUser(ctx, updated); err != nil {
		return User{}, User{}, err
	}
	after, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return User{}, User{}, err
	}
	return before, after, nil
}

func (s *Service) checkAssignment(ctx context.Context, userID, departmentID, managerID string) error {
	if departmentID != "" {
		ok, err := s.store.DepartmentExists(ctx, departmentID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDepartmentNotFound
		}
	}
	if managerID != "" {
		if managerID == userID {
			return ErrSelfManager
		}
		ok, err := s.store.UserExists(ctx, managerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrManagerNotFound
		}
	}
	return nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	users, err := s.store.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (User, error) {
	if err := s.store.UpdateName(ctx, userID, normalizeName(in.Name)); err != nil {
		return User{}, err
	}
	return s.store.GetUser(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID string, in PasswordChangeInput) error {
	if in.NewPassword != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	current, err := s.store.PasswordHash(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(current, in.CurrentPassword); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	deps, err := s.store.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	if deps == nil {
		deps = []Department{}
	}
	return deps, nil
}

func (s *Service) CreateDepartment(ctx context.Context, in DepartmentInput) (Department, error) {
	return s.store.CreateDepartment(ctx, normalizeName(in.Name))
}
