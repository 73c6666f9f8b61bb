package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"kpi/internal/domain/auth"
)

type memoryStore struct {
	seq         int
	users       map[string]User
	hashes      map[string]string
	departments map[string]Department
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:       map[string]User{},
		hashes:      map[string]string{},
		departments: map[string]Department{"dep-it": {ID: "dep-it", Name: "IT"}},
	}
}

func (m *memoryStore) CreateUser(_ context.Context, user User, passwordHash string) (string, error) {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return "", ErrEmailTaken
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("user-%d", m.seq)
	m.users[user.ID] = user
	m.hashes[user.ID] = passwordHash
	return user.ID, nil
}

func (m *memoryStore) UpdateUser(_ context.Context, user User) error {
	if _, ok := m.users[user.ID]; !ok {
		return ErrUserNotFound
	}
	for id, existing := range m.users {
		if id != user.ID && existing.Email == user.Email {
			return ErrEmailTaken
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memoryStore) GetUser(_ context.Context, userID string) (User, error) {
	user, ok := m.users[userID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (m *memoryStore) ListUsers(_ context.Context, _, _ int) ([]User, error) {
	var out []User
	for _, user := range m.users {
		out = append(out, user)
	}
	return out, nil
}

func (m *memoryStore) UserExists(_ context.Context, userID string) (bool, error) {
	_, ok := m.users[userID]
	return ok, nil
}

func (m *memoryStore) PasswordHash(_ context.Context, userID string) (string, error) {
	hash, ok := m.hashes[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return hash, nil
}

func (m *memoryStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	m.hashes[userID] = passwordHash
	return nil
}

func (m *memoryStore) UpdateName(_ context.Context, userID, name string) error {
	user, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.Name = name
	m.users[userID] = user
	return nil
}

func (m *memoryStore) DepartmentExists(_ context.Context, departmentID string) (bool, error) {
	_, ok := m.departments[departmentID]
	return ok, nil
}

func (m *memoryStore) ListDepartments(_ context.Context) ([]Department, error) {
	var out []Department
	for _, d := range m.departments {
		out = append(out, d)
	}
	return out, nil
}

func (m *memoryStore) CreateDepartment(_ context.Context, name string) (Department, error) {
	for _, d := range m.departments {
		if d.Name == name {
			return Department{}, ErrDepartmentTaken
		}
	}
	d := Department{ID: "dep-" + name, Name: name}
	m.departments[d.ID] = d
	return d, nil
}

func TestRegister(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, Options{AllowSelfSignup: true})
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: " Lan ", Email: "Lan@SKH.vn", Password: "secret1", ConfirmPassword: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != auth.RoleEmployee || user.Email != "lan@skh.vn" || user.Name != "Lan" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := auth.CheckPassword(store.hashes[user.ID], "secret1"); err != nil {
		t.Fatalf("expected bcrypt hash of the password: %v", err)
	}

	_, err = svc.Register(ctx, RegisterInput{Name: "Lan", Email: "lan@skh.vn", Password: "secret1", ConfirmPassword: "secret1"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	_, err = svc.Register(ctx, RegisterInput{Name: "Minh", Email: "minh@skh.vn", Password: "secret1", ConfirmPassword: "secret2"})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	closed := NewService(store, Options{AllowSelfSignup: false})
	if _, err := closed.Register(ctx, RegisterInput{Name: "X", Email: "x@skh.vn", Password: "secret1", ConfirmPassword: "secret1"}); !errors.Is(err, ErrSignupDisabled) {
		t.Fatalf("expected ErrSignupDisabled, got %v", err)
	}
}

func TestCreateAndUpdateUser(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, Options{DefaultPassword: "123"})
	ctx := context.Background()

	lead, err := svc.CreateUser(ctx, CreateUserInput{Name: "Lead", Email: "tp@skh.vn", Role: "tl", DepartmentID: "dep-it"})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if lead.Role != auth.RoleTeamLead {
		t.Fatalf("expected TL role, got %q", lead.Role)
	}
	if err := auth.CheckPassword(store.hashes[lead.ID], "123"); err != nil {
		t.Fatal("expected default password to be applied")
	}

	emp, err := svc.CreateUser(ctx, CreateUserInput{Name: "Emp", Email: "nv@skh.vn", Password: "abcdef", Role: auth.RoleEmployee, ManagerID: lead.ID})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if emp.ManagerID != lead.ID {
		t.Fatalf("expected manager %s, got %s", lead.ID, emp.ManagerID)
	}

	if _, err := svc.CreateUser(ctx, CreateUserInput{Name: "Bad", Email: "bad@skh.vn", Role: "BOSS"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Name: "Bad", Email: "bad@skh.vn", Role: auth.RoleEmployee, DepartmentID: "missing"}); !errors.Is(err, ErrDepartmentNotFound) {
		t.Fatalf("expected ErrDepartmentNotFound, got %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Name: "Bad", Email: "bad@skh.vn", Role: auth.RoleEmployee, ManagerID: "ghost"}); !errors.Is(err, ErrManagerNotFound) {
		t.Fatalf("expected ErrManagerNotFound, got %v", err)
	}

	before, after, err := svc.UpdateUser(ctx, emp.ID, UpdateUserInput{Name: "Emp Two", Role: auth.RoleDeputyDirector})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if before.ManagerID != lead.ID || after.ManagerID != "" || after.Role != auth.RoleDeputyDirector {
		t.Fatalf("unexpected before/after: %+v / %+v", before, after)
	}

	if _, _, err := svc.UpdateUser(ctx, emp.ID, UpdateUserInput{Name: "Emp", Role: auth.RoleEmployee, ManagerID: emp.ID}); !errors.Is(err, ErrSelfManager) {
		t.Fatalf("expected ErrSelfManager, got %v", err)
	}
	if _, _, err := svc.UpdateUser(ctx, "missing", UpdateUserInput{Name: "X", Role: auth.RoleEmployee}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateUserEmail(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, Options{DefaultPassword: "123"})
	ctx := context.Background()

	lan, err := svc.CreateUser(ctx, CreateUserInput{Name: "Lan", Email: "lan@skh.vn", Role: auth.RoleEmployee})
	if err != nil {
		t.Fatalf("create lan: %v", err)
	}
	if _, err := svc.CreateUser(ctx, CreateUserInput{Name: "Minh", Email: "minh@skh.vn", Role: auth.RoleEmployee}); err != nil {
		t.Fatalf("create minh: %v", err)
	}

	_, after, err := svc.UpdateUser(ctx, lan.ID, UpdateUserInput{Name: "Lan", Email: " Lan.Nguyen@SKH.vn ", Role: auth.RoleEmployee})
	if err != nil {
		t.Fatalf("update email: %v", err)
	}
	if after.Email != "lan.nguyen@skh.vn" {
		t.Fatalf("expected normalized email, got %q", after.Email)
	}

	_, after, err = svc.UpdateUser(ctx, lan.ID, UpdateUserInput{Name: "Lan", Role: auth.RoleEmployee})
	if err != nil || after.Email != "lan.nguyen@skh.vn" {
		t.Fatalf("expected empty email to keep the current one, got %q (%v)", after.Email, err)
	}

	_, _, err = svc.UpdateUser(ctx, lan.ID, UpdateUserInput{Name: "Lan", Email: "minh@skh.vn", Role: auth.RoleEmployee})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if field := ErrorField(err); field != "email" {
		t.Fatalf("expected email field, got %q", field)
	}
}

func TestChangePassword(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, Options{AllowSelfSignup: true})
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Lan", Email: "lan@skh.vn", Password: "secret1", ConfirmPassword: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = svc.ChangePassword(ctx, user.ID, PasswordChangeInput{CurrentPassword: "wrong", NewPassword: "secret2", ConfirmPassword: "secret2"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	err = svc.ChangePassword(ctx, user.ID, PasswordChangeInput{CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret3"})
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, PasswordChangeInput{CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret2"}); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if err := auth.CheckPassword(store.hashes[user.ID], "secret2"); err != nil {
		t.Fatal("expected new password to be stored")
	}
}

func TestDepartments(t *testing.T) {
	svc := NewService(newMemoryStore(), Options{})
	ctx := context.Background()

	dep, err := svc.CreateDepartment(ctx, DepartmentInput{Name: " Marketing "})
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	if dep.Name != "Marketing" {
		t.Fatalf("expected trimmed name, got %q", dep.Name)
	}
	if _, err := svc.CreateDepartment(ctx, DepartmentInput{Name: "Marketing"}); !errors.Is(err, ErrDepartmentTaken) {
		t.Fatalf("expected ErrDepartmentTaken, got %v", err)
	}
	deps, err := svc.ListDepartments(ctx)
	if err != nil || len(deps) != 2 {
		t.Fatalf("expected 2 departments, got %d (%v)", len(deps), err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc := NewService(newMemoryStore(), Options{AllowSelfSignup: true})
	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Name: "Lan", Email: "lan@skh.vn", Password: "secret1", ConfirmPassword: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	updated, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Name: "Lan  Nguyen"})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Lan Nguyen" {
		t.Fatalf("expected normalized name, got %q", updated.Name)
	}
	if _, err := svc.UpdateProfile(ctx, "missing", ProfileInput{Name: "X"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
