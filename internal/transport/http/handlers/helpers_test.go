package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hrdesk/internal/app/server"
	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/config"
)

const testSecret = "test-secret"

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
	Details map[string]any  `json:"details"`
}

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.StoreDriver = config.StoreDriverMemory
	cfg.JWTSecret = testSecret
	cfg.RateLimitPerMinute = 0
	cfg.Seed.Employees = []config.SeedEmployee{
		{ID: "E-ADM", EmployeeNumber: "1000", Name: "Hana Admin", Department: "HR", Role: "admin", HireDate: "2015-03-02"},
		{ID: "M1", EmployeeNumber: "1001", Name: "Min Supervisor", Department: "Ops", Role: "supervisor", HireDate: "2018-06-01"},
		{ID: "E1", EmployeeNumber: "1002", Name: "Dana Cho", Department: "Ops", Role: "user", ManagerID: "M1", HireDate: "2020-01-01"},
		{ID: "E2", EmployeeNumber: "1003", Name: "Eli Park", Department: "Ops", Role: "user", ManagerID: "M1", HireDate: "2021-03-01"},
	}
	return cfg
}

type testEnv struct {
	app    *server.App
	ts     *httptest.Server
	client *http.Client
	admin  string
	super  string
	dana   string
	eli    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	app, err := server.New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return &testEnv{
		app:    app,
		ts:     ts,
		client: ts.Client(),
		admin:  token(t, "u-admin", "E-ADM", auth.RoleAdmin),
		super:  token(t, "u-min", "M1", auth.RoleSupervisor),
		dana:   token(t, "u-dana", "E1", auth.RoleUser),
		eli:    token(t, "u-eli", "E2", auth.RoleUser),
	}
}

func token(t *testing.T, userID, employeeID string, role auth.Role) string {
	t.Helper()
	tok, err := auth.GenerateToken(testSecret, auth.Claims{UserID: userID, EmployeeID: employeeID, Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, tok string, body any, want int) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, tok, want)
}

func (e *testEnv) send(t *testing.T, req *http.Request, tok string, want int) envelope {
	t.Helper()
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", req.Method, req.URL.Path, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return env
}

func (e *testEnv) postMultipart(t *testing.T, path, tok string, fields map[string]string, fileName string, content []byte, want int) envelope {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}
	if fileName != "" {
		fileWriter, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("failed to create multipart file: %v", err)
		}
		if _, err := fileWriter.Write(content); err != nil {
			t.Fatalf("failed to write multipart content: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, e.ts.URL+path, &body)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.send(t, req, tok, want)
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("failed to decode data %s: %v", string(env.Data), err)
	}
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

// futureWeekday returns a Monday at least days ahead of today.
func futureWeekday(days int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, days)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func ymd(t time.Time) string {
	return t.Format("2006-01-02")
}
