package mcpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/toolbox"
)

func newTestRunner(t *testing.T) *toolbox.Runner {
	t.Helper()
	r, err := toolbox.NewRunner(toolbox.Config{Capacity: 2})
	require.NoError(t, err)
	return r
}

func TestNew_DefaultPath(t *testing.T) {
	s := New(Config{Addr: ":0"}, newTestRunner(t))
	assert.Equal(t, "/mcp", s.cfg.Path, "未配置时应使用默认挂载路径")
}

func TestHandler_MountedOnPath(t *testing.T) {
	s := New(Config{Addr: ":0", Path: "/mcp"}, newTestRunner(t))
	h := s.Handler()
	require.NotNil(t, h)

	// 非挂载路径应 404
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvoke_DelegatesToRunner(t *testing.T) {
	r := newTestRunner(t)
	r.Register("echo", func(ctx context.Context, inv toolbox.Invocation) (toolbox.Outcome, error) {
		return toolbox.Outcome{RunID: inv.RunID, Summary: "ok", Stdout: string(inv.Args)}, nil
	})
	s := New(Config{Addr: ":0"}, r)

	_, out, err := s.invoke(context.Background(), "echo", "proj-a", "", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, "ok", out.Summary)
	assert.Contains(t, out.Stdout, `"k":"v"`)
}

func TestInvoke_UnknownTool(t *testing.T) {
	s := New(Config{Addr: ":0"}, newTestRunner(t))
	_, _, err := s.invoke(context.Background(), "not_registered", "", "", struct{}{})
	assert.Error(t, err)
}
