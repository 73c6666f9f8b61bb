package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"kpi/internal/app/server"
	"kpi/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error any             `json:"error"`
}

const seedPassword = "123"

func TestSelfEvaluationApprovalJourney(t *testing.T) {
	ts, cfg := startServer(t)
	client := ts.Client()

	adminToken, _ := login(t, client, ts.URL, "admin@skh.vn", seedPassword)
	leadToken, leadID := login(t, client, ts.URL, "tp@skh.vn", seedPassword)

	employeeEmail := fmt.Sprintf("journey-%d@skh.vn", time.Now().UnixNano())
	createEmployee(t, client, ts.URL, adminToken, employeeEmail, leadID)
	employeeToken, _ := login(t, client, ts.URL, employeeEmail, cfg.DefaultUserPassword)

	empty := getJSON(t, client, ts.URL+"/api/v1/evaluations?month=3&year=2025", employeeToken)
	if string(empty.Data) != "null" {
		t.Fatalf("expected no evaluation yet, got %s", string(empty.Data))
	}

	saved := envelopeDataMap(t, postJSON(t, client, ts.URL+"/api/v1/evaluations", employeeToken, savePayload(3, 2025, "")))
	if saved["status"] != "DRAFT" {
		t.Fatalf("expected DRAFT after save, got %v", saved["status"])
	}
	if saved["totalScore"] != 86.0 || saved["rank"] != "B" {
		t.Fatalf("expected score 86 rank B, got %v/%v", saved["totalScore"], saved["rank"])
	}

	submitted := envelopeDataMap(t, postJSON(t, client, ts.URL+"/api/v1/evaluations/submit", employeeToken, map[string]any{
		"month": 3,
		"year":  2025,
	}))
	if submitted["status"] != "SUBMITTED" {
		t.Fatalf("expected SUBMITTED after submit, got %v", submitted["status"])
	}
	evaluationID, _ := submitted["id"].(string)

	pending := envelopeDataSlice(t, getJSON(t, client, ts.URL+"/api/v1/approvals", leadToken))
	if !containsID(pending, evaluationID) {
		t.Fatalf("expected evaluation %s in the lead's approvals", evaluationID)
	}

	reviewed := envelopeDataMap(t, postJSON(t, client, ts.URL+"/api/v1/approvals", leadToken, map[string]any{
		"evaluationId": evaluationID,
		"decision":     "approve",
		"scores":       map[string]float64{"t1": 80, "t2": 70},
		"comment":      "Good month",
	}))
	if reviewed["status"] != "APPROVED" {
		t.Fatalf("expected APPROVED after review, got %v", reviewed["status"])
	}

	locked := postJSONStatus(t, client, ts.URL+"/api/v1/evaluations", employeeToken, savePayload(3, 2025, ""), http.StatusForbidden)
	if code := envelopeErrorCode(locked); code != "evaluation_locked" {
		t.Fatalf("expected evaluation_locked, got %s", code)
	}

	detail := envelopeDataMap(t, getJSON(t, client, ts.URL+"/api/v1/approvals/"+evaluationID, leadToken))
	reviews, _ := detail["reviews"].([]any)
	if len(reviews) != 1 {
		t.Fatalf("expected one manager review, got %d", len(reviews))
	}

	items := envelopeDataSlice(t, getJSON(t, client, ts.URL+"/api/v1/notifications", employeeToken))
	if len(items) == 0 {
		t.Fatal("expected the employee to be notified of the decision")
	}
}

func TestEmployeeCannotReviewOrBrowseOthers(t *testing.T) {
	ts, cfg := startServer(t)
	client := ts.Client()

	adminToken, _ := login(t, client, ts.URL, "admin@skh.vn", seedPassword)
	_, leadID := login(t, client, ts.URL, "tp@skh.vn", seedPassword)

	employeeEmail := fmt.Sprintf("scoped-%d@skh.vn", time.Now().UnixNano())
	createEmployee(t, client, ts.URL, adminToken, employeeEmail, leadID)
	employeeToken, _ := login(t, client, ts.URL, employeeEmail, cfg.DefaultUserPassword)

	getJSONStatus(t, client, ts.URL+"/api/v1/approvals", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/admin/evaluations", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/users", employeeToken, http.StatusForbidden)
	getJSONStatus(t, client, ts.URL+"/api/v1/evaluations?month=1&year=2025", "", http.StatusUnauthorized)
}

func startServer(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig(dbURL)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts, cfg
}

func testConfig(dbURL string) config.Config {
	cfg := config.Defaults()
	cfg.DatabaseURL = dbURL
	cfg.JWTSecret = "test-secret"
	cfg.FrontendDir = "frontend/dist"
	cfg.Environment = "test"
	cfg.SeedPassword = seedPassword
	cfg.DefaultUserPassword = "Welcome123"
	cfg.AllowSelfSignup = true
	cfg.EmailEnabled = false
	cfg.RunMigrations = true
	cfg.RunSeed = true
	cfg.MaxBodyBytes = 1048576
	cfg.RateLimitPerMinute = 1000
	return cfg
}

func savePayload(month, year int, status string) map[string]any {
	return map[string]any{
		"month":  month,
		"year":   year,
		"status": status,
		"tasks": []map[string]any{
			{"id": "t1", "category": "I", "name": "Campaign launch", "weight": 60, "selfScore": 90, "deadline": "2025-03-20"},
			{"id": "t2", "category": "II", "name": "Weekly report", "weight": 40, "selfScore": 80},
		},
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) (string, string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("expected token")
	}
	return payload.Token, payload.User.ID
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, email, managerID string) string {
	t.Helper()
	return createUserWithRole(t, client, baseURL, token, "Journey Employee", email, "EMP", managerID)
}

func createUserWithRole(t *testing.T, client *http.Client, baseURL, token, name, email, role, managerID string) string {
	t.Helper()
	resp := postJSONStatus(t, client, baseURL+"/api/v1/users", token, map[string]any{
		"name":      name,
		"email":     email,
		"role":      role,
		"managerId": managerID,
	}, http.StatusCreated)
	id, _ := envelopeDataMap(t, resp)["id"].(string)
	if id == "" {
		t.Fatal("expected user id")
	}
	return id
}

func containsID(items []map[string]any, id string) bool {
	for _, item := range items {
		if item["id"] == id {
			return true
		}
	}
	return false
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	status, env, raw := doJSON(t, client, http.MethodPost, url, token, body, nil)
	if status >= 400 {
		t.Fatalf("unexpected status %d: %s", status, raw)
	}
	return env
}

func postJSONStatus(t *testing.T, client *http.Client, url, token string, body any, want int) envelope {
	t.Helper()
	status, env, raw := doJSON(t, client, http.MethodPost, url, token, body, nil)
	if status != want {
		t.Fatalf("expected status %d, got %d: %s", want, status, raw)
	}
	return env
}

func postJSONAnyStatusWithHeaders(t *testing.T, client *http.Client, url, token string, body any, headers map[string]string) (int, envelope) {
	t.Helper()
	status, env, _ := doJSON(t, client, http.MethodPost, url, token, body, headers)
	return status, env
}

func putJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	status, env, raw := doJSON(t, client, http.MethodPut, url, token, body, nil)
	if status >= 400 {
		t.Fatalf("unexpected status %d: %s", status, raw)
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	status, env, raw := doJSON(t, client, http.MethodGet, url, token, nil, nil)
	if status >= 400 {
		t.Fatalf("unexpected status %d: %s", status, raw)
	}
	return env
}

func getJSONStatus(t *testing.T, client *http.Client, url, token string, want int) envelope {
	t.Helper()
	status, env, raw := doJSON(t, client, http.MethodGet, url, token, nil, nil)
	if status != want {
		t.Fatalf("expected status %d, got %d: %s", want, status, raw)
	}
	return env
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any, headers map[string]string) (int, envelope, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope %q: %v", string(raw), err)
	}
	return resp.StatusCode, env, string(raw)
}

func envelopeErrorCode(env envelope) string {
	errMap, ok := env.Error.(map[string]any)
	if !ok {
		return ""
	}
	code, _ := errMap["code"].(string)
	return code
}

func envelopeDataSlice(t *testing.T, env envelope) []map[string]any {
	t.Helper()
	var payload []map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode array payload: %v", err)
	}
	return payload
}

func envelopeDataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode object payload: %v", err)
	}
	return payload
}

func assertValidationErrorField(t *testing.T, env envelope, field string) {
	t.Helper()
	if code := envelopeErrorCode(env); code != "validation_error" {
		t.Fatalf("expected validation_error, got %+v", env.Error)
	}
	errMap, _ := env.Error.(map[string]any)
	details, ok := errMap["details"].(map[string]any)
	if !ok {
		t.Fatalf("expected details object, got %+v", errMap["details"])
	}
	fieldsRaw, ok := details["fields"].([]any)
	if !ok {
		t.Fatalf("expected details.fields array, got %+v", details["fields"])
	}
	for _, item := range fieldsRaw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if value, _ := entry["field"].(string); value == field {
			return
		}
	}
	t.Fatalf("expected validation field %q in %+v", field, fieldsRaw)
}
