package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemRunRepo_UpsertAndGet(t *testing.T) {
	repo := NewMemRunRepo(10)
	ctx := context.Background()

	run := Run{
		RunID:     "run-1",
		Tool:      "android_build",
		ProjectID: "proj-a",
		Device:    "emulator-5554",
		Args:      json.RawMessage(`{"module":"app"}`),
		Status:    "pending",
	}
	require.NoError(t, repo.UpsertRun(ctx, run))

	got, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "android_build", got.Tool)
	assert.False(t, got.CreatedAt.IsZero(), "插入时应该填充 created_at")

	// run_id 为空应该报错
	assert.Error(t, repo.UpsertRun(ctx, Run{}))

	// 不存在返回 nil, nil
	missing, err := repo.GetRun(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemRunRepo_UpdateRunStatus(t *testing.T) {
	repo := NewMemRunRepo(10)
	ctx := context.Background()

	require.NoError(t, repo.UpsertRun(ctx, Run{RunID: "run-1", Tool: "ios_test", Status: "running"}))

	dur := 1234
	err := repo.UpdateRunStatus(ctx, "run-1", "success", "", json.RawMessage(`{"ok":true}`), &dur)
	require.NoError(t, err)

	got, _ := repo.GetRun(ctx, "run-1")
	assert.Equal(t, "success", got.Status)
	assert.NotNil(t, got.FinishedAt, "终态应该填充 finished_at")
	assert.Equal(t, 1234, *got.DurationMs)

	assert.Error(t, repo.UpdateRunStatus(ctx, "missing", "fail", "x", nil, nil))
}

func TestMemRunRepo_ListRunsFilters(t *testing.T) {
	repo := NewMemRunRepo(100)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		tool := "android_build"
		status := "success"
		if i%2 == 1 {
			tool = "ios_test"
			status = "fail"
		}
		require.NoError(t, repo.UpsertRun(ctx, Run{
			RunID:     fmt.Sprintf("run-%d", i),
			Tool:      tool,
			ProjectID: "proj-a",
			Status:    status,
		}))
		time.Sleep(time.Millisecond) // 保证 created_at 单调递增
	}

	all, err := repo.ListRuns(ctx, ListRunsFilter{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "run-5", all[0].RunID, "应该按创建时间倒序")

	byTool, err := repo.ListRuns(ctx, ListRunsFilter{Tool: "ios_test"})
	require.NoError(t, err)
	assert.Len(t, byTool, 3)

	byStatus, err := repo.ListRuns(ctx, ListRunsFilter{Status: "success"})
	require.NoError(t, err)
	assert.Len(t, byStatus, 3)

	paged, err := repo.ListRuns(ctx, ListRunsFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, paged, 2)
}

func TestMemRunRepo_CapacityEviction(t *testing.T) {
	repo := NewMemRunRepo(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.UpsertRun(ctx, Run{RunID: fmt.Sprintf("run-%d", i), Tool: "t", Status: "success"}))
	}

	// 最旧的两条被淘汰
	old, err := repo.GetRun(ctx, "run-0")
	require.NoError(t, err)
	assert.Nil(t, old, "超出容量后最旧的记录应该被淘汰")

	kept, err := repo.GetRun(ctx, "run-4")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}
