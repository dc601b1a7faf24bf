// Package workflow implements the recruitment workflow engine: graph queries,
// condition evaluation, node execution tracking and candidate orchestration.
package workflow

import (
	"sort"

	"github.com/hireflow/hireflow/pkg/models"
)

// Graph is the immutable traversal view over one workflow definition. It
// precomputes outgoing adjacency in evaluation order and the entry nodes.
//
// Evaluation order per source node: connections are consulted by ascending
// creation sequence, except that always-type connections are consulted only
// after every other connection has been tried. This makes branch choice
// deterministic even when several connections would qualify.
type Graph struct {
	workflow *models.Workflow
	nodes    map[string]*models.WorkflowNode
	outgoing map[string][]*models.Connection
	incoming map[string]int
}

// NewGraph builds the traversal view for a workflow definition.
func NewGraph(w *models.Workflow) *Graph {
	g := &Graph{
		workflow: w,
		nodes:    make(map[string]*models.WorkflowNode, len(w.Nodes)),
		outgoing: make(map[string][]*models.Connection),
		incoming: make(map[string]int),
	}

	for _, node := range w.Nodes {
		g.nodes[node.ID] = node
	}

	for _, conn := range w.Connections {
		g.outgoing[conn.SourceNodeID] = append(g.outgoing[conn.SourceNodeID], conn)
		g.incoming[conn.TargetNodeID]++
	}

	for _, conns := range g.outgoing {
		sortConnections(conns)
	}

	return g
}

// sortConnections orders a source node's connections for evaluation:
// non-always first, then always, ascending creation sequence within each group.
func sortConnections(conns []*models.Connection) {
	sort.SliceStable(conns, func(i, j int) bool {
		iAlways := conns[i].ConditionType == models.ConditionTypeAlways
		jAlways := conns[j].ConditionType == models.ConditionTypeAlways

		if iAlways != jAlways {
			return jAlways
		}

		return conns[i].Seq < conns[j].Seq
	})
}

// Workflow returns the underlying definition.
func (g *Graph) Workflow() *models.Workflow {
	return g.workflow
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(nodeID string) *models.WorkflowNode {
	return g.nodes[nodeID]
}

// Outgoing returns the connections leaving nodeID in evaluation order.
func (g *Graph) Outgoing(nodeID string) []*models.Connection {
	return g.outgoing[nodeID]
}

// EntryNodes returns the nodes with no incoming connections, in definition
// order. A workflow with zero entry nodes is invalid and is rejected at
// activation time.
func (g *Graph) EntryNodes() []*models.WorkflowNode {
	entries := make([]*models.WorkflowNode, 0, 1)

	for _, node := range g.workflow.Nodes {
		if g.incoming[node.ID] == 0 {
			entries = append(entries, node)
		}
	}

	return entries
}

// Reachable returns the set of node IDs reachable from the entry nodes.
func (g *Graph) Reachable() map[string]bool {
	seen := make(map[string]bool, len(g.nodes))

	var visit func(nodeID string)
	visit = func(nodeID string) {
		if seen[nodeID] {
			return
		}

		seen[nodeID] = true

		for _, conn := range g.outgoing[nodeID] {
			visit(conn.TargetNodeID)
		}
	}

	for _, entry := range g.EntryNodes() {
		visit(entry.ID)
	}

	return seen
}
