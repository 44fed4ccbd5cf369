package execx

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("测试依赖 POSIX shell")
	}
}

func TestRun_Success(t *testing.T) {
	skipOnWindows(t)

	res, err := Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
}

func TestRun_NonZeroExit(t *testing.T) {
	skipOnWindows(t)

	res, err := Run(context.Background(), "sh", "-c", "echo partial; exit 3")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr, "非零退出应该返回 *ExitError")
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, "partial\n", exitErr.Stdout, "错误应该携带已产生的输出")
	assert.Equal(t, "partial\n", res.Stdout)
}

func TestRun_CommandNotFound(t *testing.T) {
	_, err := Run(context.Background(), "definitely-not-a-command-12345")
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr), "无法启动不是退出码错误")
}

func TestRun_ContextTimeout(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Run(ctx, "sleep", "5")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLookPath(t *testing.T) {
	assert.True(t, LookPath("sh") || runtime.GOOS == "windows")
	assert.False(t, LookPath("definitely-not-a-command-12345"))
}
