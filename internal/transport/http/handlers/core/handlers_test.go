package corehandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kpi/internal/domain/auth"
	"kpi/internal/domain/core"
	"kpi/internal/transport/http/middleware"
)

func withAdmin(r *http.Request) context.Context {
	return middleware.WithUser(r.Context(), auth.UserContext{UserID: "admin", RoleName: auth.RoleSystemAdmin})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		field  string
	}{
		{core.ErrUserNotFound, http.StatusNotFound, ""},
		{core.ErrEmailTaken, http.StatusBadRequest, "email"},
		{core.ErrPasswordMismatch, http.StatusBadRequest, "confirmPassword"},
		{core.ErrInvalidCredentials, http.StatusBadRequest, "currentPassword"},
		{core.ErrSelfManager, http.StatusBadRequest, "managerId"},
		{errors.New("db down"), http.StatusInternalServerError, ""},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err, "req", "user_update_failed", "failed to update user")
		if rec.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}
		if tc.field != "" && !strings.Contains(rec.Body.String(), `"field":"`+tc.field+`"`) {
			t.Fatalf("%v: expected field %q in %s", tc.err, tc.field, rec.Body.String())
		}
		if tc.status == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "db down") {
			t.Fatal("internal errors must not leak")
		}
	}
}

func TestNewMeResponse(t *testing.T) {
	admin := newMeResponse(core.User{ID: "u1", Role: auth.RoleSystemAdmin})
	if admin.Landing != auth.LandingAdmin || !admin.Capabilities.AdminUsers || admin.Capabilities.SelfEvaluate {
		t.Fatalf("unexpected admin response %+v", admin)
	}
	emp := newMeResponse(core.User{ID: "u2", Role: auth.RoleEmployee})
	if emp.Landing != auth.LandingDashboard || !emp.Capabilities.SelfEvaluate || emp.Capabilities.ReviewSubordinates {
		t.Fatalf("unexpected employee response %+v", emp)
	}
}

func TestCreateUserValidation(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(`{"email":"bad","role":"boss","managerId":"x"}`))
	req = req.WithContext(withAdmin(req))
	rec := httptest.NewRecorder()
	h.handleCreateUser(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	for _, field := range []string{"name", "email", "role", "managerId"} {
		if !strings.Contains(rec.Body.String(), `"field":"`+field+`"`) {
			t.Fatalf("expected field %q in %s", field, rec.Body.String())
		}
	}
}

func TestUpdateUserValidatesEmail(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodPut, "/api/v1/users/x", strings.NewReader(`{"name":"Lan","email":"not-an-email","role":"emp"}`))
	req = req.WithContext(withAdmin(req))
	rec := httptest.NewRecorder()
	h.handleUpdateUser(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"field":"email"`) {
		t.Fatalf("expected email issue in %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), `"field":"role"`) {
		t.Fatalf("expected lower-case role to be accepted, got %s", rec.Body.String())
	}
}
