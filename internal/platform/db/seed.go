package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kpi/internal/domain/auth"
	"kpi/internal/platform/config"
)

const (
	DepartmentIT        = "IT"
	DepartmentBoard     = "Ban Giám đốc"
	DepartmentMarketing = "Marketing"
)

type seedUser struct {
	email      string
	name       string
	role       string
	department string
	manager    string
}

// seedUsers are inserted in order so that managers exist before their reports.
var seedUsers = []seedUser{
	{email: "admin@skh.vn", name: "System Admin", role: auth.RoleSystemAdmin, department: DepartmentIT},
	{email: "director@skh.vn", name: "Giám đốc", role: auth.RoleDirector, department: DepartmentBoard},
	{email: "tp@skh.vn", name: "Trưởng phòng Marketing", role: auth.RoleTeamLead, department: DepartmentMarketing, manager: "director@skh.vn"},
	{email: "nv@skh.vn", name: "Nhân viên Marketing", role: auth.RoleEmployee, department: DepartmentMarketing, manager: "tp@skh.vn"},
}

// Seed is idempotent: existing departments and users are left untouched.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	departments := map[string]string{}
	for _, name := range []string{DepartmentIT, DepartmentBoard, DepartmentMarketing} {
		id, err := ensureDepartment(ctx, pool, name)
		if err != nil {
			return err
		}
		departments[name] = id
	}

	hash, err := auth.HashPassword(cfg.SeedPassword)
	if err != nil {
		return err
	}

	users := map[string]string{}
	for _, u := range seedUsers {
		id, err := ensureUser(ctx, pool, u, departments[u.department], users[u.manager], hash)
		if err != nil {
			return err
		}
		users[u.email] = id
	}
	return nil
}

func ensureDepartment(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM departments WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = pool.QueryRow(ctx, "INSERT INTO departments (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, u seedUser, departmentID, managerID, hash string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", u.email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	var manager any
	if managerID != "" {
		manager = managerID
	}
	err = pool.QueryRow(ctx, `
    INSERT INTO users (email, name, password_hash, role, department_id, manager_id)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, u.email, u.name, hash, u.role, departmentID, manager).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
