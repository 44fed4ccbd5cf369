package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/device"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/healthcheck"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

func newTestRouter(t *testing.T) (http.Handler, *toolbox.Runner) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	runner, err := toolbox.NewRunner(toolbox.Config{Capacity: 2})
	require.NoError(t, err)

	r := NewRouter(Deps{
		Runner:        runner,
		DeviceStore:   runner.Devices(),
		RunRepo:       runner.Runs(),
		HealthChecker: healthcheck.NewHealthChecker(nil, runner),
	})
	return r, runner
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}

func TestGetQueueStats(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/queue/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Capacity   int `json:"capacity"`
		Running    int `json:"running"`
		QueueDepth int `json:"queue_depth"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Capacity)
	assert.Equal(t, 0, resp.Running)
	assert.Equal(t, 0, resp.QueueDepth)
}

func TestUpsertAndListDevices(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"serial":"emulator-5554","platform":"android","name":"Pixel 8","is_enabled":true}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/devices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/devices", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total   int           `json:"total"`
		Devices []device.Info `json:"devices"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "emulator-5554", resp.Devices[0].Serial)
}

func TestUpsertDevice_InvalidSerial(t *testing.T) {
	r, _ := newTestRouter(t)

	body := `{"serial":"bad serial","platform":"android"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/devices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunTool_SyncSuccess(t *testing.T) {
	r, runner := newTestRouter(t)
	runner.Register("echo_ok", func(ctx context.Context, inv toolbox.Invocation) (toolbox.Outcome, error) {
		return toolbox.Outcome{RunID: inv.RunID, Summary: "done"}, nil
	})

	body := `{"project_id":"proj-a","args":{}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/tools/echo_ok", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RunID   string `json:"run_id"`
		Status  string `json:"status"`
		Summary string `json:"summary"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "done", resp.Summary)

	// 运行记录应能按 run_id 查询到
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/runs/"+resp.RunID, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunTool_Async(t *testing.T) {
	r, runner := newTestRouter(t)
	runner.Register("echo_ok", func(ctx context.Context, inv toolbox.Invocation) (toolbox.Outcome, error) {
		return toolbox.Outcome{RunID: inv.RunID}, nil
	})

	body := `{"async":true}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/tools/echo_ok", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "pending")
}

func TestRunTool_UnknownTool(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/tools/never_registered", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunTool_InvalidToolName(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/tools/Bad-Name", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetRun_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/runs/no-such-run", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRuns_InvalidStatus(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/runs?status=bogus", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
