package devicelock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOpts(t *testing.T) Options {
	t.Helper()
	return Options{
		Timeout:      2 * time.Second,
		PollInterval: 10 * time.Millisecond,
		BaseDir:      t.TempDir(),
	}
}

func TestAcquire_EmptyKey(t *testing.T) {
	_, err := Acquire(context.Background(), "", testOpts(t))
	assert.Error(t, err, "空 deviceKey 应该直接失败")

	_, err = Acquire(context.Background(), "   ", testOpts(t))
	assert.Error(t, err)
}

func TestAcquire_WritesOwnerPid(t *testing.T) {
	opts := testOpts(t)
	lock, err := Acquire(context.Background(), "emulator-5554", opts)
	require.NoError(t, err)
	defer lock.Release()

	raw, err := os.ReadFile(filepath.Join(opts.BaseDir, "emulator-5554.lock", "pid"))
	require.NoError(t, err, "锁目录中应该有 pid 文件")
	pid, err := strconv.Atoi(string(raw))
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid, "记录的应该是获取者自己的 PID")
}

func TestAcquire_MutualExclusion(t *testing.T) {
	opts := testOpts(t)
	ctx := context.Background()

	first, err := Acquire(ctx, "emulator-5554", opts)
	require.NoError(t, err)

	secondDone := make(chan *Lock, 1)
	go func() {
		l, err := Acquire(ctx, "emulator-5554", opts)
		if err != nil {
			secondDone <- nil
			return
		}
		secondDone <- l
	}()

	// 第一把锁未释放前，第二个 Acquire 不应该成功
	select {
	case <-secondDone:
		t.Fatal("第一把锁仍被持有时第二个 Acquire 不应返回")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, first.Release())

	select {
	case second := <-secondDone:
		require.NotNil(t, second, "释放后第二个 Acquire 应该成功")
		assert.NoError(t, second.Release())
	case <-time.After(time.Second):
		t.Fatal("释放后第二个 Acquire 应该很快成功")
	}
}

func TestAcquire_DifferentKeysIndependent(t *testing.T) {
	opts := testOpts(t)
	ctx := context.Background()

	a, err := Acquire(ctx, "emulator-5554", opts)
	require.NoError(t, err)
	defer a.Release()

	// 不同设备的锁互不影响，应立即成功
	b, err := Acquire(ctx, "emulator-5556", opts)
	require.NoError(t, err)
	defer b.Release()
}

func TestAcquire_StaleLockReclaimed(t *testing.T) {
	opts := testOpts(t)

	tests := []struct {
		name    string
		prepare func(t *testing.T, dir string)
	}{
		{
			name: "dead owner pid",
			prepare: func(t *testing.T, dir string) {
				// 远超 pid_max 的 PID，不可能对应存活进程
				require.NoError(t, os.WriteFile(filepath.Join(dir, "pid"), []byte("99999999"), 0o644))
			},
		},
		{
			name: "unparseable pid",
			prepare: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "pid"), []byte("not-a-pid"), 0o644))
			},
		},
		{
			name:    "missing pid file",
			prepare: func(t *testing.T, dir string) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "stale-" + tt.name
			dir := filepath.Join(opts.BaseDir, sanitizeKey(key)+".lock")
			require.NoError(t, os.MkdirAll(dir, 0o755))
			tt.prepare(t, dir)

			start := time.Now()
			lock, err := Acquire(context.Background(), key, opts)
			require.NoError(t, err, "陈旧锁应该被回收")
			defer lock.Release()

			assert.Less(t, time.Since(start), opts.Timeout/2,
				"回收陈旧锁不应等待接近超时的时间")
		})
	}
}

func TestAcquire_TimeoutAgainstLiveOwner(t *testing.T) {
	opts := testOpts(t)
	opts.Timeout = 150 * time.Millisecond
	ctx := context.Background()

	holder, err := Acquire(ctx, "busy-device", opts)
	require.NoError(t, err)
	defer holder.Release()

	start := time.Now()
	_, err = Acquire(ctx, "busy-device", opts)
	elapsed := time.Since(start)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr, "持有者存活时应该返回超时错误")
	assert.Equal(t, "busy-device", timeoutErr.Key)
	assert.Equal(t, opts.Timeout, timeoutErr.Timeout)
	assert.GreaterOrEqual(t, elapsed, opts.Timeout, "不应在超时前返回")
}

func TestAcquire_ContextCanceled(t *testing.T) {
	opts := testOpts(t)
	holder, err := Acquire(context.Background(), "ctx-device", opts)
	require.NoError(t, err)
	defer holder.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = Acquire(ctx, "ctx-device", opts)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelease_Idempotent(t *testing.T) {
	opts := testOpts(t)
	lock, err := Acquire(context.Background(), "emulator-5554", opts)
	require.NoError(t, err)

	assert.NoError(t, lock.Release())
	assert.NoError(t, lock.Release(), "重复 Release 不应报错")

	// 释放后第三方可以立即获取
	again, err := Acquire(context.Background(), "emulator-5554", opts)
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	opts := testOpts(t)
	boom := errors.New("动作失败")

	err := WithLock(context.Background(), "emulator-5554", opts, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom, "动作的错误应该原样返回")

	// 出错路径也必须释放锁
	lock, err := Acquire(context.Background(), "emulator-5554", opts)
	require.NoError(t, err)
	assert.NoError(t, lock.Release())
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"emulator-5554", "emulator-5554"},
		{"192.168.1.5:5555", "192.168.1.5_5555"},
		{"00008101-001E30E21E08001E", "00008101-001E30E21E08001E"},
		{"weird key/../x", "weird_key_.._x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeKey(tt.in), tt.in)
	}
}
