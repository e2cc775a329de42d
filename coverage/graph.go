// Package coverage builds a directed multigraph over one test run: typed
// nodes (Actor, StateMachine, Monitor, Error, ExternalCode) connected by
// Contains edges (parent→child nesting) and event-labeled transition edges,
// observed incrementally from the execution stream.
package coverage

import "fmt"

// NodeKind classifies a coverage graph node.
type NodeKind int

const (
	NodeActor NodeKind = iota
	NodeStateMachine
	NodeMonitor
	NodeError
	NodeExternalCode
)

func (k NodeKind) String() string {
	switch k {
	case NodeActor:
		return "Actor"
	case NodeStateMachine:
		return "StateMachine"
	case NodeMonitor:
		return "Monitor"
	case NodeError:
		return "Error"
	case NodeExternalCode:
		return "ExternalCode"
	default:
		return "Unknown"
	}
}

// Node is one coverage graph node.
type Node struct {
	ID string
	Label string
	Kind NodeKind
	ParentID string // "" for a root-level container
}

// Edge is one coverage graph link; under MergeEventLinks, parallel edges
// with the same (Source, Target, Label) coalesce into a single Edge with
// Count > 1.
type Edge struct {
	Source, Target string
	Label string
	Count int
	Index int // disambiguates parallel edges when not merging
}

func edgeKey(source, target, label string) string {
	return source + "\x00" + target + "\x00" + label
}

// Builder incrementally constructs a coverage graph from create/send/
// receive/state-transition observations.
type Builder struct {
	MergeEventLinks bool
	CollapseInstances bool

	nodes map[string]*Node
	order []string
	edges map[string]*Edge
	edgeKeys []string
}

// NewBuilder constructs an empty coverage Builder.
func NewBuilder(mergeEventLinks, collapseInstances bool) *Builder {
	return &Builder{
		MergeEventLinks: mergeEventLinks,
		CollapseInstances: collapseInstances,
		nodes: make(map[string]*Node),
		edges: make(map[string]*Edge),
	}
}

func (b *Builder) nodeKey(id string) string {
	if b.CollapseInstances {
		return "type:" + id
	}
	return id
}

func (b *Builder) addNode(id, label string, kind NodeKind, parent string) *Node {
	key := b.nodeKey(id)
	if n, ok := b.nodes[key]; ok {
		return n
	}
	n := &Node{ID: key, Label: label, Kind: kind, ParentID: parent}
	b.nodes[key] = n
	b.order = append(b.order, key)
	return n
}

// AddActor registers an actor instance and its current state as a Contains
// child.
func (b *Builder) AddActor(actorID, actorType, initialState string) {
	b.addNode(actorID, actorType, NodeActor, "")
	if initialState != "" {
		b.AddState(actorID, initialState)
	}
}

// AddState registers actorID's state as a child node connected to the
// actor's container node via a Contains edge.
func (b *Builder) AddState(actorID, state string) {
	stateID := actorID + "::" + state
	b.addNode(stateID, state, NodeStateMachine, b.nodeKey(actorID))
	b.addEdge(b.nodeKey(actorID), b.nodeKey(stateID), "Contains")
}

// AddMonitor registers a monitor node.
func (b *Builder) AddMonitor(monitorID, monitorType string) {
	b.addNode(monitorID, monitorType, NodeMonitor, "")
}

// AddError registers an error node linked from source, for failure-path
// coverage.
func (b *Builder) AddError(source, errorID, label string) {
	b.addNode(errorID, label, NodeError, "")
	b.addEdge(b.nodeKey(source), b.nodeKey(errorID), label)
}

// AddEdge records a dispatched-event transition from source to target,
// labeled with the event's own name, same as well-known transition kinds
// (goto, push, pop, halt, default, *).
func (b *Builder) AddEdge(source, target, eventLabel string) {
	b.addEdge(b.nodeKey(source), b.nodeKey(target), eventLabel)
}

func (b *Builder) addEdge(source, target, label string) {
	key := edgeKey(source, target, label)
	if b.MergeEventLinks {
		if e, ok := b.edges[key]; ok {
			e.Count++
			return
		}
		e := &Edge{Source: source, Target: target, Label: label, Count: 1}
		b.edges[key] = e
		b.edgeKeys = append(b.edgeKeys, key)
		return
	}
	idx := 0
	for _, k := range b.edgeKeys {
		if e := b.edges[k]; e.Source == source && e.Target == target && e.Label == label {
			idx++
		}
	}
	e := &Edge{Source: source, Target: target, Label: label, Count: 1, Index: idx}
	uniqueKey := fmt.Sprintf("%s#%d", key, idx)
	b.edges[uniqueKey] = e
	b.edgeKeys = append(b.edgeKeys, uniqueKey)
}

// Nodes returns every node in insertion order.
func (b *Builder) Nodes() []*Node {
	out := make([]*Node, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, b.nodes[k])
	}
	return out
}

// Edges returns every edge in insertion order.
func (b *Builder) Edges() []*Edge {
	out := make([]*Edge, 0, len(b.edgeKeys))
	for _, k := range b.edgeKeys {
		out = append(out, b.edges[k])
	}
	return out
}
