package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRepo RunRepository 的 Postgres 实现
type RunRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

func (r *RunRepo) UpsertRun(ctx context.Context, run Run) error {
	if run.RunID == "" {
		return errors.New("run_id 不能为空")
	}
	_, err := r.pool.Exec(ctx, `
insert into run(run_id, tool, project_id, device, args, status, error, result, started_at, finished_at, duration_ms)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
on conflict (run_id) do update
set status = excluded.status,
    error = excluded.error,
    result = excluded.result,
    started_at = excluded.started_at,
    finished_at = excluded.finished_at,
    duration_ms = excluded.duration_ms,
    updated_at = now()
`, run.RunID, run.Tool, run.ProjectID, run.Device, run.Args, run.Status, run.Error, run.Result, run.StartedAt, run.FinishedAt, run.DurationMs)
	return err
}

func (r *RunRepo) UpdateRunStatus(ctx context.Context, runID, status, errMsg string, result json.RawMessage, durationMs *int) error {
	_, err := r.pool.Exec(ctx, `
update run
set status=$2, error=$3, result=$4, duration_ms=$5,
    finished_at=case when $2 in ('success','fail') then now() else finished_at end,
    updated_at=now()
where run_id=$1
`, runID, status, errMsg, result, durationMs)
	return err
}

func (r *RunRepo) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := r.pool.QueryRow(ctx, `
select run_id, tool, coalesce(project_id,''), coalesce(device,''), args, status, coalesce(error,''), result, started_at, finished_at, duration_ms, created_at, updated_at
from run
where run_id=$1
`, runID)

	var run Run
	if err := row.Scan(&run.RunID, &run.Tool, &run.ProjectID, &run.Device, &run.Args, &run.Status, &run.Error, &run.Result, &run.StartedAt, &run.FinishedAt, &run.DurationMs, &run.CreatedAt, &run.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

func (r *RunRepo) ListRuns(ctx context.Context, f ListRunsFilter) ([]Run, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, `
select run_id, tool, coalesce(project_id,''), coalesce(device,''), args, status, coalesce(error,''), result, started_at, finished_at, duration_ms, created_at, updated_at
from run
where ($1='' or tool=$1)
  and ($2='' or project_id=$2)
  and ($3='' or device=$3)
  and ($4='' or status=$4)
order by created_at desc
limit $5 offset $6
`, f.Tool, f.ProjectID, f.Device, f.Status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.RunID, &run.Tool, &run.ProjectID, &run.Device, &run.Args, &run.Status, &run.Error, &run.Result, &run.StartedAt, &run.FinishedAt, &run.DurationMs, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
