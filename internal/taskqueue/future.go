package taskqueue

import "context"

// Future 表示一个异步任务的最终结果。
// 结果在任务完成（成功或失败）时恰好交付一次。
type Future[R any] struct {
	done   chan struct{}
	result R
	err    error
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// settle 记录结果并唤醒所有等待者，只允许调用一次
func (f *Future[R]) settle(result R, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Wait 阻塞直到任务完成或 ctx 被取消。
// 注意：ctx 取消只是放弃等待，任务本身仍会继续执行直至完成——
// 队列没有任务级取消，需要超时的调用方应在执行器内部自带 deadline。
func (f *Future[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// Done 返回任务完成时关闭的通道，便于 select 组合
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}
