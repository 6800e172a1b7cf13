package handlers_test

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndReadiness(t *testing.T) {
	e := newTestEnv(t)
	for path, want := range map[string]string{"/healthz": "ok", "/readyz": "ready"} {
		resp, err := e.client.Get(e.ts.URL + path)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, want, string(body), path)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"), path)
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	e := newTestEnv(t)
	env := e.do(t, http.MethodGet, "/api/v1/leave/policy", "", nil, http.StatusUnauthorized)
	assert.Equal(t, "unauthorized", errorCode(env))
	e.do(t, http.MethodGet, "/api/v1/leave/policy", "not-a-jwt", nil, http.StatusUnauthorized)
}

func TestCarryOverRunIsRecordedAsJob(t *testing.T) {
	e := newTestEnv(t)

	e.do(t, http.MethodPost, "/api/v1/leave/carry-over", e.super, map[string]any{"year": 2024}, http.StatusForbidden)

	run := e.do(t, http.MethodPost, "/api/v1/leave/carry-over", e.admin, map[string]any{"year": 2024}, http.StatusOK)
	var summary struct {
		Year      int `json:"year"`
		Processed int `json:"processed"`
	}
	decodeData(t, run, &summary)
	assert.Equal(t, 2024, summary.Year)
	assert.Equal(t, 4, summary.Processed, "every seeded employee carries over, balance read or not")

	again := e.do(t, http.MethodPost, "/api/v1/leave/carry-over", e.admin, map[string]any{"year": 2024}, http.StatusConflict)
	assert.Equal(t, "conflict", errorCode(again))

	next := e.balance(t, e.dana, "E1", 2025)
	assert.Greater(t, next.RemainingDays, next.TotalEntitlement)

	jobsEnv := e.do(t, http.MethodGet, "/api/v1/admin/jobs?type=leave_carry_over", e.admin, nil, http.StatusOK)
	var runs []struct {
		JobType string `json:"jobType"`
		Status  string `json:"status"`
	}
	decodeData(t, jobsEnv, &runs)
	require.Len(t, runs, 2)
	statuses := []string{runs[0].Status, runs[1].Status}
	assert.ElementsMatch(t, []string{"completed", "failed"}, statuses)

	e.do(t, http.MethodGet, "/api/v1/admin/jobs", e.dana, nil, http.StatusForbidden)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodGet, "/api/v1/leave/types", e.dana, nil, http.StatusOK)

	env := e.do(t, http.MethodGet, "/api/v1/admin/metrics", e.admin, nil, http.StatusOK)
	var snapshot map[string]any
	decodeData(t, env, &snapshot)
	assert.Contains(t, snapshot, "payroll")
	e.do(t, http.MethodGet, "/api/v1/admin/metrics", e.super, nil, http.StatusForbidden)
}

func TestDirectoryVisibility(t *testing.T) {
	e := newTestEnv(t)

	me := e.do(t, http.MethodGet, "/api/v1/me", e.dana, nil, http.StatusOK)
	var profile struct {
		User struct {
			EmployeeID string `json:"employeeId"`
		} `json:"user"`
		Employee struct {
			Name string `json:"name"`
		} `json:"employee"`
	}
	decodeData(t, me, &profile)
	assert.Equal(t, "E1", profile.User.EmployeeID)
	assert.Equal(t, "Dana Cho", profile.Employee.Name)

	list := e.do(t, http.MethodGet, "/api/v1/employees", e.super, nil, http.StatusOK)
	var team []struct {
		ID string `json:"id"`
	}
	decodeData(t, list, &team)
	ids := make([]string, 0, len(team))
	for _, emp := range team {
		ids = append(ids, emp.ID)
	}
	assert.ElementsMatch(t, []string{"M1", "E1", "E2"}, ids)

	e.do(t, http.MethodGet, "/api/v1/employees/E2", e.dana, nil, http.StatusForbidden)
	e.do(t, http.MethodGet, "/api/v1/employees/nobody", e.admin, nil, http.StatusNotFound)
}
