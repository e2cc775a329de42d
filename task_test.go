package systest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskAwaitReceivesResult(t *testing.T) {
	rt := NewRuntime(WithSeed(1))
	var got TaskResult
	var gotOK bool

	producer := rt.CreateTask(func(ctx *TaskContext) {
		ctx.Complete(42, nil)
	})
	rt.CreateTask(func(ctx *TaskContext) {
		ctx.Await(producer, func(res TaskResult) {
			got = res
			gotOK = true
		})
	})

	require.NoError(t, rt.Run())
	require.True(t, gotOK)
	require.Equal(t, 42, got.Value)
	require.NoError(t, got.Err)
}

func TestTaskImplicitCompletion(t *testing.T) {
	rt := NewRuntime(WithSeed(2))
	h := rt.CreateTask(func(ctx *TaskContext) {})

	require.NoError(t, rt.Run())
	status, ok := rt.TaskStatus(h)
	require.True(t, ok)
	require.Equal(t, OperationCompleted, status)
}

func TestTaskAwaitAlreadyCompletedResolvesSynchronously(t *testing.T) {
	rt := NewRuntime(WithSeed(3))
	producer := rt.CreateTask(func(ctx *TaskContext) {
		ctx.Complete("done", nil)
	})
	require.NoError(t, rt.Run())

	var res TaskResult
	var ranSync bool
	rt.CreateTask(func(ctx *TaskContext) {
		ctx.Await(producer, func(r TaskResult) {
			res = r
			ranSync = true
		})
	})
	require.NoError(t, rt.Run())
	require.True(t, ranSync)
	require.Equal(t, "done", res.Value)
}

func TestTaskAwaitUnknownHandleFailsFast(t *testing.T) {
	rt := NewRuntime(WithSeed(4))
	var got TaskResult
	rt.CreateTask(func(ctx *TaskContext) {
		ctx.Await(TaskHandle{}, func(res TaskResult) { got = res })
	})
	require.NoError(t, rt.Run())
	require.Error(t, got.Err)
}

func TestTaskPanicBecomesErrorResult(t *testing.T) {
	rt := NewRuntime(WithSeed(5))
	victim := rt.CreateTask(func(ctx *TaskContext) {
		panic("boom")
	})
	var got TaskResult
	rt.CreateTask(func(ctx *TaskContext) {
		ctx.Await(victim, func(res TaskResult) { got = res })
	})
	require.NoError(t, rt.Run())
	require.Error(t, got.Err)
	require.Contains(t, got.Err.Error(), "boom")
}

func TestTaskChainOfAwaits(t *testing.T) {
	rt := NewRuntime(WithSeed(6))
	first := rt.CreateTask(func(ctx *TaskContext) {
		ctx.Complete(1, nil)
	})
	var second TaskHandle
	second = rt.CreateTask(func(ctx *TaskContext) {
		ctx.Await(first, func(res TaskResult) {
			ctx.Complete(res.Value.(int)+1, nil)
		})
	})
	var final TaskResult
	rt.CreateTask(func(ctx *TaskContext) {
		ctx.Await(second, func(res TaskResult) { final = res })
	})
	require.NoError(t, rt.Run())
	require.Equal(t, 2, final.Value)
}
