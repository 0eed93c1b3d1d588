package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"checkin-service/internal/handler"
	"checkin-service/internal/middleware"
	"checkin-service/internal/model"
	"checkin-service/internal/service"
	"checkin-service/internal/store/memory"
	"checkin-service/pkg/config"
	"checkin-service/pkg/jwtutil"
	"checkin-service/pkg/logger"
)

// newTestServer wires the full route table against the in-memory store,
// with the default admin already bootstrapped.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	jwtutil.Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})

	mem := memory.New()
	if err := service.EnsureDefaultAdmin(context.Background(), mem.Users(), "admin", "admin123", zap.NewNop()); err != nil {
		t.Fatalf("EnsureDefaultAdmin: %v", err)
	}

	gate := service.NewGate(mem.Users())
	directory := service.NewDirectory(mem.Users(), mem.Locations())
	ledger := service.NewLedger(mem.Records())
	authorizer := service.NewAuthorizer(mem.Users(), mem.Locations(), ledger)

	authHandler := handler.NewAuth(gate)
	userHandler := handler.NewUser(directory)
	locationHandler := handler.NewLocation(directory)
	attendanceHandler := handler.NewAttendance(authorizer, ledger)

	e := echo.New()
	e.Use(logger.Middleware(zap.NewNop()))

	e.POST("/auth/login", authHandler.Login)
	e.GET("/health", handler.HealthCheck)

	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)
	api.POST("/users", userHandler.Create)
	api.GET("/users", userHandler.List)
	api.DELETE("/users/:id", userHandler.Delete)
	api.PUT("/users/:id/location", userHandler.AssignLocation)
	api.GET("/users/:id/location", userHandler.GetLocation)
	api.POST("/locations", locationHandler.Create)
	api.GET("/locations", locationHandler.List)
	api.PUT("/locations/:id", locationHandler.Update)
	api.DELETE("/locations/:id", locationHandler.Delete)
	api.POST("/check-in", attendanceHandler.CheckIn)
	api.GET("/attendance", attendanceHandler.ListRecords)

	return e
}

// do sends a JSON request through the echo server and returns the recorder.
func do(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func login(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()

	rec := do(t, e, http.MethodPost, "/auth/login", "", echo.Map{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func TestHealthEndpoint(t *testing.T) {
	e := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	decode(t, rec, &resp)
	if resp["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", resp["status"])
	}
}

func TestLoginFailuresAnswerIdentically(t *testing.T) {
	e := newTestServer(t)

	wrongPassword := do(t, e, http.MethodPost, "/auth/login", "", echo.Map{
		"username": "admin",
		"password": "nope",
	})
	unknownUser := do(t, e, http.MethodPost, "/auth/login", "", echo.Map{
		"username": "ghost",
		"password": "nope",
	})

	if wrongPassword.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", wrongPassword.Code)
	}
	if unknownUser.Code != http.StatusUnauthorized {
		t.Errorf("unknown username status = %d, want 401", unknownUser.Code)
	}
	if wrongPassword.Body.String() != unknownUser.Body.String() {
		t.Errorf("failure bodies differ:\n  wrong password: %s\n  unknown user:   %s",
			wrongPassword.Body.String(), unknownUser.Body.String())
	}
}

func TestAPIRequiresToken(t *testing.T) {
	e := newTestServer(t)

	if rec := do(t, e, http.MethodGet, "/api/users", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/api/users", "not-a-jwt", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", rec.Code)
	}
}

func TestCheckInFlow(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	// Create a worker in the admin's tenant.
	rec := do(t, e, http.MethodPost, "/api/users", adminToken, echo.Map{
		"username": "worker",
		"password": "secret",
		"role":     model.RoleUser,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d, body %s", rec.Code, rec.Body.String())
	}
	var worker model.User
	decode(t, rec, &worker)
	if worker.AdminID == nil {
		t.Fatal("created worker has no owning admin")
	}

	// The password hash never leaves the server.
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Errorf("user response leaks password field: %s", rec.Body.String())
	}

	// Create a geofence and point the worker at it.
	rec = do(t, e, http.MethodPost, "/api/locations", adminToken, echo.Map{
		"name":      "office",
		"latitude":  39.9042,
		"longitude": 116.4074,
		"radius":    200,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create location: status %d, body %s", rec.Code, rec.Body.String())
	}
	var office model.Location
	decode(t, rec, &office)

	rec = do(t, e, http.MethodPut, "/api/users/"+worker.ID+"/location", adminToken, echo.Map{
		"locationId": office.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign location: status %d, body %s", rec.Code, rec.Body.String())
	}

	// The worker checks in from inside the fence.
	workerToken := login(t, e, "worker", "secret")
	rec = do(t, e, http.MethodPost, "/api/check-in", workerToken, echo.Map{
		"latitude":  39.9042,
		"longitude": 116.4074,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("check-in: status %d, body %s", rec.Code, rec.Body.String())
	}
	var checkin struct {
		Success bool                   `json:"success"`
		Record  model.AttendanceRecord `json:"record"`
	}
	decode(t, rec, &checkin)
	if !checkin.Success {
		t.Errorf("in-radius check-in reported failure: %s", rec.Body.String())
	}
	if checkin.Record.LocationID != office.ID {
		t.Errorf("record LocationID = %q, want %q", checkin.Record.LocationID, office.ID)
	}

	// And again from ~500 m away: still 200, but a failed record.
	rec = do(t, e, http.MethodPost, "/api/check-in", workerToken, echo.Map{
		"latitude":  39.9087,
		"longitude": 116.4074,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("out-of-radius check-in: status %d, body %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &checkin)
	if checkin.Success {
		t.Errorf("out-of-radius check-in reported success: %s", rec.Body.String())
	}
	if checkin.Record.Status != model.StatusFailed {
		t.Errorf("record status = %q, want failed", checkin.Record.Status)
	}

	// The worker sees both records newest-first; the admin sees the same
	// through the tenant view.
	rec = do(t, e, http.MethodGet, "/api/attendance", workerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list attendance: status %d, body %s", rec.Code, rec.Body.String())
	}
	var records []model.AttendanceRecord
	decode(t, rec, &records)
	if len(records) != 2 {
		t.Fatalf("worker sees %d records, want 2", len(records))
	}
	if records[0].Status != model.StatusFailed || records[1].Status != model.StatusSuccess {
		t.Errorf("records not newest-first: %s", rec.Body.String())
	}

	rec = do(t, e, http.MethodGet, "/api/attendance?userId="+worker.ID, adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list attendance: status %d, body %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &records)
	if len(records) != 2 {
		t.Errorf("admin sees %d records, want 2", len(records))
	}
}

func TestCheckInRequiresCoordinates(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	rec := do(t, e, http.MethodPost, "/api/check-in", adminToken, echo.Map{
		"latitude": 39.9042,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing longitude status = %d, want 400", rec.Code)
	}
}

func TestCheckInWithoutAssignment(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	rec := do(t, e, http.MethodPost, "/api/users", adminToken, echo.Map{
		"username": "drifter",
		"password": "secret",
		"role":     model.RoleUser,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: status %d, body %s", rec.Code, rec.Body.String())
	}

	token := login(t, e, "drifter", "secret")
	rec = do(t, e, http.MethodPost, "/api/check-in", token, echo.Map{
		"latitude":  39.9042,
		"longitude": 116.4074,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("unassigned check-in status = %d, want 422; body %s", rec.Code, rec.Body.String())
	}

	// Nothing was written for the rejected attempt.
	rec = do(t, e, http.MethodGet, "/api/attendance", token, nil)
	var records []model.AttendanceRecord
	decode(t, rec, &records)
	if len(records) != 0 {
		t.Errorf("rejected attempt left %d records", len(records))
	}
}

func TestUserLocationEndpoint(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	rec := do(t, e, http.MethodPost, "/api/users", adminToken, echo.Map{
		"username": "worker",
		"password": "secret",
		"role":     model.RoleUser,
	})
	var worker model.User
	decode(t, rec, &worker)

	// Unassigned user resolves to null, not an error.
	rec = do(t, e, http.MethodGet, "/api/users/"+worker.ID+"/location", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get location: status %d, body %s", rec.Code, rec.Body.String())
	}
	if body := bytes.TrimSpace(rec.Body.Bytes()); !bytes.Equal(body, []byte("null")) {
		t.Errorf("unassigned location body = %s, want null", body)
	}

	rec = do(t, e, http.MethodPost, "/api/locations", adminToken, echo.Map{
		"name":      "office",
		"latitude":  39.9042,
		"longitude": 116.4074,
		"radius":    150,
	})
	var office model.Location
	decode(t, rec, &office)

	rec = do(t, e, http.MethodPut, "/api/users/"+worker.ID+"/location", adminToken, echo.Map{
		"locationId": office.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign location: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, e, http.MethodGet, "/api/users/"+worker.ID+"/location", adminToken, nil)
	var got model.Location
	decode(t, rec, &got)
	if got.ID != office.ID {
		t.Errorf("assigned location ID = %q, want %q", got.ID, office.ID)
	}
}

func TestDuplicateUsernameConflicts(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	body := echo.Map{"username": "worker", "password": "secret", "role": model.RoleUser}
	if rec := do(t, e, http.MethodPost, "/api/users", adminToken, body); rec.Code != http.StatusCreated {
		t.Fatalf("first create: status %d", rec.Code)
	}
	if rec := do(t, e, http.MethodPost, "/api/users", adminToken, body); rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	// A second admin runs a separate tenant.
	rec := do(t, e, http.MethodPost, "/api/users", adminToken, echo.Map{
		"username": "rival",
		"password": "secret",
		"role":     model.RoleAdmin,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create admin: status %d, body %s", rec.Code, rec.Body.String())
	}
	rivalToken := login(t, e, "rival", "secret")

	rec = do(t, e, http.MethodPost, "/api/users", adminToken, echo.Map{
		"username": "worker",
		"password": "secret",
		"role":     model.RoleUser,
	})
	var worker model.User
	decode(t, rec, &worker)

	// The rival admin sees an empty directory and cannot touch the
	// other tenant's user.
	rec = do(t, e, http.MethodGet, "/api/users", rivalToken, nil)
	var users []model.User
	decode(t, rec, &users)
	if len(users) != 0 {
		t.Errorf("foreign admin sees %d users, want 0", len(users))
	}

	if rec := do(t, e, http.MethodDelete, "/api/users/"+worker.ID, rivalToken, nil); rec.Code != http.StatusForbidden {
		t.Errorf("cross-tenant delete status = %d, want 403", rec.Code)
	}
}

func TestLocationCRUDOverHTTP(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	rec := do(t, e, http.MethodPost, "/api/locations", adminToken, echo.Map{
		"name":      "office",
		"latitude":  39.9042,
		"longitude": 116.4074,
		"radius":    200,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	var office model.Location
	decode(t, rec, &office)

	// Partial update touches only the radius.
	rec = do(t, e, http.MethodPut, "/api/locations/"+office.ID, adminToken, echo.Map{
		"radius": 350,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body.String())
	}
	var updated model.Location
	decode(t, rec, &updated)
	if updated.Radius != 350 {
		t.Errorf("Radius = %v, want 350", updated.Radius)
	}
	if updated.Name != "office" {
		t.Errorf("Name = %q changed by partial update", updated.Name)
	}

	if rec := do(t, e, http.MethodDelete, "/api/locations/"+office.ID, adminToken, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}

	rec = do(t, e, http.MethodGet, "/api/locations", adminToken, nil)
	var locations []model.Location
	decode(t, rec, &locations)
	if len(locations) != 0 {
		t.Errorf("locations after delete = %d, want 0", len(locations))
	}

	// An invalid geofence is rejected up front.
	rec = do(t, e, http.MethodPost, "/api/locations", adminToken, echo.Map{
		"name":      "bad",
		"latitude":  95.0,
		"longitude": 0.0,
		"radius":    100,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid latitude status = %d, want 400", rec.Code)
	}
}

func TestDeleteUserKeepsAttendanceVisible(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	rec := do(t, e, http.MethodPost, "/api/users", adminToken, echo.Map{
		"username": "worker",
		"password": "secret",
		"role":     model.RoleUser,
	})
	var worker model.User
	decode(t, rec, &worker)

	rec = do(t, e, http.MethodPost, "/api/locations", adminToken, echo.Map{
		"name":      "office",
		"latitude":  39.9042,
		"longitude": 116.4074,
		"radius":    200,
	})
	var office model.Location
	decode(t, rec, &office)
	do(t, e, http.MethodPut, "/api/users/"+worker.ID+"/location", adminToken, echo.Map{
		"locationId": office.ID,
	})

	workerToken := login(t, e, "worker", "secret")
	if rec := do(t, e, http.MethodPost, "/api/check-in", workerToken, echo.Map{
		"latitude":  39.9042,
		"longitude": 116.4074,
	}); rec.Code != http.StatusOK {
		t.Fatalf("check-in: status %d, body %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, e, http.MethodDelete, "/api/users/"+worker.ID, adminToken, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete user: status %d", rec.Code)
	}

	rec = do(t, e, http.MethodGet, "/api/attendance", adminToken, nil)
	var records []model.AttendanceRecord
	decode(t, rec, &records)
	if len(records) != 1 {
		t.Errorf("tenant records after user deletion = %d, want 1", len(records))
	}
}

func TestAttendanceListForbiddenForForeignUser(t *testing.T) {
	e := newTestServer(t)
	adminToken := login(t, e, "admin", "admin123")

	for i, role := range []string{model.RoleUser, model.RoleUser} {
		rec := do(t, e, http.MethodPost, "/api/users", adminToken, echo.Map{
			"username": fmt.Sprintf("worker-%d", i),
			"password": "secret",
			"role":     role,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create user %d: status %d", i, rec.Code)
		}
	}

	token := login(t, e, "worker-0", "secret")

	rec := do(t, e, http.MethodGet, "/api/users", adminToken, nil)
	var users []model.User
	decode(t, rec, &users)
	var other string
	for _, u := range users {
		if u.Username == "worker-1" {
			other = u.ID
		}
	}
	if other == "" {
		t.Fatal("worker-1 not found in listing")
	}

	if rec := do(t, e, http.MethodGet, "/api/attendance?userId="+other, token, nil); rec.Code != http.StatusForbidden {
		t.Errorf("peer record read status = %d, want 403", rec.Code)
	}
}
