package workflow

import (
	"errors"
	"fmt"

	"github.com/hireflow/hireflow/pkg/models"
	"github.com/hireflow/hireflow/pkg/registry"
)

// Graph validation sentinels. Activation fails fast on any of these rather
// than producing a runtime dead end later.
var (
	ErrNoNodes                = errors.New("workflow has no nodes")
	ErrNoEntryNodes           = errors.New("workflow has no entry nodes")
	ErrUnreachableNode        = errors.New("node unreachable from any entry node")
	ErrUnknownNodeType        = errors.New("unknown node type")
	ErrUnknownConditionType   = errors.New("unknown condition type")
	ErrEmptyConditionalConfig = errors.New("conditional connection has empty condition config")
	ErrDanglingConnection     = errors.New("connection references a node outside the workflow")
	ErrInvalidNodeConfig      = errors.New("node config does not satisfy its type schema")
)

// IsGraphValidationError reports whether err is one of the activation-time
// graph validation failures.
func IsGraphValidationError(err error) bool {
	return errors.Is(err, ErrNoNodes) ||
		errors.Is(err, ErrNoEntryNodes) ||
		errors.Is(err, ErrUnreachableNode) ||
		errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrUnknownConditionType) ||
		errors.Is(err, ErrEmptyConditionalConfig) ||
		errors.Is(err, ErrDanglingConnection) ||
		errors.Is(err, ErrInvalidNodeConfig)
}

// ValidateForActivation checks that a workflow definition is executable:
// every node carries a known, well-configured type, every connection joins
// two nodes of the workflow with a known condition type, conditional edges
// have a non-empty config, at least one entry node exists and every node is
// reachable from an entry node.
func ValidateForActivation(w *models.Workflow, kinds *registry.Registry) error {
	if len(w.Nodes) == 0 {
		return ErrNoNodes
	}

	for _, node := range w.Nodes {
		if !models.IsKnownNodeType(node.Type) {
			return fmt.Errorf("node %s: %w: %s", node.ID, ErrUnknownNodeType, node.Type)
		}

		if kinds != nil {
			if err := kinds.ValidateConfig(node.Type, node.Config); err != nil {
				return fmt.Errorf("node %s: %w: %v", node.ID, ErrInvalidNodeConfig, err)
			}
		}
	}

	graph := NewGraph(w)

	for _, conn := range w.Connections {
		if graph.Node(conn.SourceNodeID) == nil {
			return fmt.Errorf("connection %s: %w: source %s", conn.ID, ErrDanglingConnection, conn.SourceNodeID)
		}

		if graph.Node(conn.TargetNodeID) == nil {
			return fmt.Errorf("connection %s: %w: target %s", conn.ID, ErrDanglingConnection, conn.TargetNodeID)
		}

		if !models.IsKnownConditionType(conn.ConditionType) {
			return fmt.Errorf("connection %s: %w: %s", conn.ID, ErrUnknownConditionType, conn.ConditionType)
		}

		if conn.ConditionType == models.ConditionTypeConditional && conn.Condition.Empty() {
			return fmt.Errorf("connection %s: %w", conn.ID, ErrEmptyConditionalConfig)
		}
	}

	entries := graph.EntryNodes()
	if len(entries) == 0 {
		return ErrNoEntryNodes
	}

	reachable := graph.Reachable()
	for _, node := range w.Nodes {
		if !reachable[node.ID] {
			return fmt.Errorf("node %s: %w", node.ID, ErrUnreachableNode)
		}
	}

	return nil
}
