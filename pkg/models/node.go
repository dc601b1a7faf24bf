package models

// NodeType is the kind of recruitment step a node represents. The engine
// treats the node's config payload as opaque; the type only tells the
// surrounding system (scheduler, reviewer, decision maker) what must happen.
type NodeType string

const (
	NodeTypeInterview  NodeType = "interview"
	NodeTypeTodo       NodeType = "todo"
	NodeTypeAssessment NodeType = "assessment"
	NodeTypeDecision   NodeType = "decision"
)

// KnownNodeTypes lists every node type the engine accepts.
var KnownNodeTypes = []NodeType{
	NodeTypeInterview,
	NodeTypeTodo,
	NodeTypeAssessment,
	NodeTypeDecision,
}

// NodeStatus is the definition-side state of a node (not an execution state).
type NodeStatus string

const (
	NodeStatusDraft    NodeStatus = "draft"
	NodeStatusActive   NodeStatus = "active"
	NodeStatusInactive NodeStatus = "inactive"
)

// WorkflowNode is a graph vertex: one step of a recruitment process. A node
// with no incoming connections is an entry point, one with no outgoing
// connections is terminal.
type WorkflowNode struct {
	ID       string         `json:"id"        validate:"required"`
	Type     NodeType       `json:"node_type" validate:"required"`
	Status   NodeStatus     `json:"status"`
	Name     string         `json:"name"      validate:"required,min=1"`
	Config   map[string]any `json:"config"`
}

// IsKnownNodeType reports whether t is one of the supported node types.
func IsKnownNodeType(t NodeType) bool {
	for _, known := range KnownNodeTypes {
		if t == known {
			return true
		}
	}

	return false
}
