package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jack-beanstalk-2022/PistachioMCP/internal/devicelock"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/model"
	"github.com/jack-beanstalk-2022/PistachioMCP/internal/repository"
)

func newTestRunner(t *testing.T, capacity int) *Runner {
	t.Helper()
	r, err := NewRunner(Config{
		Capacity: capacity,
		Runs:     repository.NewMemRunRepo(100),
		LockOpts: devicelock.Options{
			Timeout:      2 * time.Second,
			PollInterval: 10 * time.Millisecond,
			BaseDir:      t.TempDir(),
		},
	})
	require.NoError(t, err)
	return r
}

func TestNewRunner_InvalidCapacity(t *testing.T) {
	_, err := NewRunner(Config{Capacity: 0})
	assert.Error(t, err, "capacity < 1 应该构造失败")
}

func TestRunner_UnknownTool(t *testing.T) {
	r := newTestRunner(t, 2)
	_, _, err := r.Submit("nope", "", "", nil)
	assert.Error(t, err, "未注册的工具应该同步报错")
}

func TestRunner_InvokeRecordsHistory(t *testing.T) {
	r := newTestRunner(t, 2)
	r.Register("echo", func(ctx context.Context, inv Invocation) (Outcome, error) {
		return Outcome{Summary: "done"}, nil
	})

	runID, future, err := r.Submit("echo", "proj-a", "", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)

	out, err := future.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", out.Summary)
	assert.Equal(t, runID, out.RunID, "结果应该带上 run_id")

	run, err := r.Runs().GetRun(context.Background(), runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, string(model.RunStatusSuccess), run.Status)
	assert.Equal(t, "proj-a", run.ProjectID)
	assert.NotNil(t, run.DurationMs)
	assert.NotNil(t, run.FinishedAt)
}

func TestRunner_FailureRecorded(t *testing.T) {
	r := newTestRunner(t, 2)
	boom := errors.New("构建失败")
	r.Register("broken", func(ctx context.Context, inv Invocation) (Outcome, error) {
		return Outcome{}, boom
	})

	runID, future, err := r.Submit("broken", "", "", nil)
	require.NoError(t, err)

	_, err = future.Wait(context.Background())
	assert.ErrorIs(t, err, boom)

	run, _ := r.Runs().GetRun(context.Background(), runID)
	require.NotNil(t, run)
	assert.Equal(t, string(model.RunStatusFail), run.Status)
	assert.Contains(t, run.Error, "构建失败")
}

func TestRunner_ProjectExclusivity(t *testing.T) {
	r := newTestRunner(t, 4)

	var inProject int64
	r.Register("slow", func(ctx context.Context, inv Invocation) (Outcome, error) {
		if atomic.AddInt64(&inProject, 1) > 1 {
			return Outcome{}, errors.New("同一项目出现并发执行")
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inProject, -1)
		return Outcome{}, nil
	})

	futures := make([]interface{ Done() <-chan struct{} }, 0, 5)
	for i := 0; i < 5; i++ {
		_, f, err := r.Submit("slow", "proj-a", "", nil)
		require.NoError(t, err)
		futures = append(futures, f)
	}

	for _, f := range futures {
		<-f.Done()
	}
	assert.Equal(t, 0, r.Queue().RunningCount())
}

func TestRunner_DeviceLockSerializes(t *testing.T) {
	// 两个不同项目（队列层可并发）目标同一台设备，锁层必须串行
	r := newTestRunner(t, 4)

	var onDevice int64
	r.Register("device-tool", func(ctx context.Context, inv Invocation) (Outcome, error) {
		if atomic.AddInt64(&onDevice, 1) > 1 {
			return Outcome{}, errors.New("同一设备出现并发访问")
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&onDevice, -1)
		return Outcome{}, nil
	})

	_, f1, err := r.Submit("device-tool", "proj-a", "emulator-5554", nil)
	require.NoError(t, err)
	_, f2, err := r.Submit("device-tool", "proj-b", "emulator-5554", nil)
	require.NoError(t, err)

	_, err1 := f1.Wait(context.Background())
	_, err2 := f2.Wait(context.Background())
	assert.NoError(t, err1)
	assert.NoError(t, err2)
}

func TestRunner_LockTimeoutSurfacesToCaller(t *testing.T) {
	r := newTestRunner(t, 4)
	r.lockOpts.Timeout = 100 * time.Millisecond

	// 预先持有设备锁，模拟另一个进程占用
	holder, err := devicelock.Acquire(context.Background(), "emulator-5554", r.lockOpts)
	require.NoError(t, err)
	defer holder.Release()

	r.Register("blocked", func(ctx context.Context, inv Invocation) (Outcome, error) {
		return Outcome{}, nil
	})

	runID, future, err := r.Submit("blocked", "", "emulator-5554", nil)
	require.NoError(t, err)

	_, err = future.Wait(context.Background())
	var timeoutErr *devicelock.TimeoutError
	require.ErrorAs(t, err, &timeoutErr, "锁超时应该作为任务失败传递给调用方")
	assert.Equal(t, "emulator-5554", timeoutErr.Key)

	run, _ := r.Runs().GetRun(context.Background(), runID)
	require.NotNil(t, run)
	assert.Equal(t, string(model.RunStatusFail), run.Status)
}

func TestDecodeArgs(t *testing.T) {
	args, err := decodeArgs[AndroidBuildArgs](json.RawMessage(`{"project_dir":"/tmp/app","tasks":["assembleRelease"]}`))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/app", args.ProjectDir)
	assert.Equal(t, []string{"assembleRelease"}, args.Tasks)

	// 空参数返回零值
	empty, err := decodeArgs[AndroidBuildArgs](nil)
	require.NoError(t, err)
	assert.Empty(t, empty.ProjectDir)

	_, err = decodeArgs[AndroidBuildArgs](json.RawMessage(`{bad`))
	assert.Error(t, err)
}
