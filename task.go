package systest

import "fmt"

// TaskResult is the outcome of a completed controlled task: Value for a
// normal completion, Err if the body panicked or called Complete with a
// non-nil error.
type TaskResult struct {
	Value any
	Err error
}

// TaskFunc is one stage of a controlled task's body. It runs synchronously,
// on the runtime's single logical executor, from the moment the scheduler
// picks its operation until it either returns (the task completes with a
// zero TaskResult), calls ctx.Complete, or calls ctx.Await — there is no
// host-language goroutine behind it.
type TaskFunc func(ctx *TaskContext)

// taskInstance is the runtime's bookkeeping for one controlled task,
// parallel to Actor for actor operations: it owns an Operation, the body
// still waiting for its first (and only) scheduling turn, and the
// continuations parked on its completion via Await.
type taskInstance struct {
	op *Operation
	pending TaskFunc
	waiters []func(TaskResult)
	result TaskResult
	done bool
}

func (t *taskInstance) finish(res TaskResult) {
	if t.done {
		return
	}
	t.done = true
	t.result = res
	t.op.complete()
	waiters := t.waiters
	t.waiters = nil
	for _, w := range waiters {
		w(res)
	}
}

// TaskHandle is an opaque reference to a controlled task, returned by
// CreateTask and passed to Await.
type TaskHandle struct {
	id OperationId
}

// ID returns the task's operation id.
func (h TaskHandle) ID() OperationId { return h.id }

// TaskContext is the task-facing API available from inside a TaskFunc.
type TaskContext struct {
	rt *Runtime
	t *taskInstance
}

// Self returns a handle to the task currently executing.
func (ctx *TaskContext) Self() TaskHandle { return TaskHandle{id: ctx.t.op.ID} }

// Complete finishes the current task with the given result, synchronously
// waking every operation parked on an Await of it. Calling Complete more
// than once, or after the body already returned, is a no-op.
func (ctx *TaskContext) Complete(value any, err error) {
	ctx.t.finish(TaskResult{Value: value, Err: err})
}

// Await suspends the current task until target completes, then invokes
// onDone with its result. If target has already completed, onDone runs
// immediately, synchronously, before Await returns. Await does not itself
// return control to the scheduler: the calling TaskFunc must return
// immediately after calling it, exactly as ActorContext.ReceiveEventAsync
// requires of its caller.
func (ctx *TaskContext) Await(target TaskHandle, onDone func(TaskResult)) {
	ctx.rt.awaitTask(ctx.t.op, target, onDone)
}

// CreateTask registers a new controlled task and schedules its body to run
// at a future scheduling point (PointAwaitTask's counterpart on the
// creation side), returning a handle other tasks or actors can Await.
func (rt *Runtime) CreateTask(body TaskFunc) TaskHandle {
	op := rt.registry.create(ActorId{})
	t := &taskInstance{op: op, pending: body}
	rt.tasks[op.ID] = t
	rt.taskOrder = append(rt.taskOrder, op.ID)
	rt.cfg.logger.Debug().Int("task", int(op.ID)).Msg("task created")
	return TaskHandle{id: op.ID}
}

// Await is the actor-facing equivalent of TaskContext.Await, letting an
// actor handler suspend the actor's current operation on a controlled
// task's completion.
func (ac *ActorContext) Await(target TaskHandle, onDone func(TaskResult)) {
	ac.rt.awaitTask(ac.actor.op, target, onDone)
}

// TaskStatus reports a task's current scheduling status and whether the
// handle refers to a task this runtime created.
func (rt *Runtime) TaskStatus(h TaskHandle) (OperationStatus, bool) {
	t, ok := rt.tasks[h.id]
	if !ok {
		return 0, false
	}
	return t.op.Status(), true
}

func (rt *Runtime) awaitTask(waiterOp *Operation, target TaskHandle, onDone func(TaskResult)) {
	t, ok := rt.tasks[target.id]
	if !ok {
		onDone(TaskResult{Err: ErrUnknownTask(target.id)})
		return
	}
	if t.done {
		onDone(t.result)
		return
	}
	waiterOp.park(PointAwaitTask, OperationPausedOnResource, nil)
	t.waiters = append(t.waiters, func(res TaskResult) {
		waiterOp.resumeNow()
		onDone(res)
	})
}

// runTaskBody is the scheduler's entry point for a task's single scheduling
// turn: it runs the stored body exactly once. A body that neither calls
// Complete nor Await before returning is treated as an implicit, immediate
// completion with a zero TaskResult — the common case for a fire-and-forget
// unit of work that needs no result value.
func (rt *Runtime) runTaskBody(t *taskInstance) {
	body := t.pending
	t.pending = nil
	ctx := &TaskContext{rt: rt, t: t}
	func() {
		defer func() {
			if r := recover(); r != nil {
				err, _ := r.(error)
				if err == nil {
					err = fmt.Errorf("%v", r)
				}
				t.finish(TaskResult{Err: err})
			}
		}()
		body(ctx)
	}()
	if !t.done && t.op.Status() == OperationEnabled {
		t.finish(TaskResult{})
	}
}
