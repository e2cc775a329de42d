package systest

// monitorInstance is a specification automaton that observes events
// synchronously but cannot send them. It reuses the state-machine dispatch
// table and stack machinery but drives it through a throwaway inbox, since
// monitors have no mailbox of their own and no scheduling point of their
// own — InvokeMonitor is a direct, synchronous call.
type monitorInstance struct {
	monitorType string
	sm *stateMachineInstance
	inbox *Inbox
	rt *Runtime
	actor *Actor
}

func newMonitorInstance(rt *Runtime, monitorType string, tmpl *StateMachineTemplate) *monitorInstance {
	inbox := NewInbox(nil)
	sm := tmpl.newInstance()
	op := newOperation(0, ActorId{})
	a := &Actor{sm: sm, inbox: inbox, op: op, status: ActorActive, rt: rt}
	return &monitorInstance{monitorType: monitorType, sm: sm, inbox: inbox, rt: rt, actor: a}
}

func (m *monitorInstance) inHotState() bool {
	if fs, ok := m.sm.tmpl.states[m.sm.currentStateName()]; ok {
		return fs.def.Hot
	}
	return false
}

// dispatch runs e through the monitor's current state: transitions mirror
// StateMachine transitions (goto/push/pop/do), but a monitor never defers,
// ignores, or raises — every dispatch is immediate.
func (m *monitorInstance) dispatch(e Event) {
	ctx := &ActorContext{inbox: m.inbox, actor: m.actor, rt: m.rt, monitorType: m.monitorType}
	h, found := m.sm.lookup(e.Type)
	if !found {
		return
	}
	switch h.kind {
	case handlerDo:
		h.action(ctx, e)
	case handlerGoto:
		m.sm.goTo(ctx, h.target)
	case handlerPush:
		m.sm.pushState(ctx, h.target)
	}
	if e.Type == EventPopState {
		m.sm.popState(ctx)
	}
}
